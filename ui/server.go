package ui

import (
	"log"
	"net/http"

	"flureport/domain/stats"

	"github.com/gin-gonic/gin"
)

// Server previews a rendered report directory over HTTP and exposes the
// computed summaries as JSON. Local inspection only; the pipeline itself
// never needs the network.
type Server struct {
	router *gin.Engine

	outDir   string
	manifest *stats.RunManifest
	bodyTemp *stats.ContinuousSummary
	symptoms *stats.ProportionTable
}

// NewServer creates a preview server over a completed run.
func NewServer(outDir string, manifest *stats.RunManifest, bodyTemp *stats.ContinuousSummary, symptoms *stats.ProportionTable) *Server {
	s := &Server{
		router:   gin.Default(),
		outDir:   outDir,
		manifest: manifest,
		bodyTemp: bodyTemp,
		symptoms: symptoms,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/report/report.html")
	})
	s.router.Static("/report", s.outDir)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/api/manifest", s.handleManifest)
	s.router.GET("/api/summaries", s.handleSummaries)
}

func (s *Server) handleManifest(c *gin.Context) {
	if s.manifest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No run loaded"})
		return
	}
	c.JSON(http.StatusOK, s.manifest)
}

func (s *Server) handleSummaries(c *gin.Context) {
	if s.bodyTemp == nil || s.symptoms == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No run loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"continuous":  []*stats.ContinuousSummary{s.bodyTemp},
		"proportions": s.symptoms.All(),
	})
}

// Run blocks serving the preview until the process exits.
func (s *Server) Run(addr string) error {
	log.Printf("[Server] Report preview on %s", addr)
	return s.router.Run(addr)
}
