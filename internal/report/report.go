package report

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"flureport/domain/stats"
	"flureport/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// FigureRef ties a rendered figure file to its caption.
type FigureRef struct {
	Title string
	File  string
}

// Data is everything the report needs, passed explicitly. The assembly
// step has no state of its own beyond formatting.
type Data struct {
	Manifest    *stats.RunManifest
	BodyTemp    *stats.ContinuousSummary
	Symptoms    *stats.ProportionTable
	Histogram   string
	SymptomBars string
	Composites  []FigureRef
	Contingency []FigureRef
	Scatter     string
	Curve       *stats.LogisticCurve
}

// Builder assembles the markdown narrative and tables and converts them to
// a standalone HTML page. All display rounding (2 dp) happens here;
// upstream values stay full precision.
type Builder struct {
	OutDir string
}

// NewBuilder creates a report builder writing into outDir.
func NewBuilder(outDir string) *Builder {
	return &Builder{OutDir: outDir}
}

// WriteHTML renders the report and returns the written filename relative
// to OutDir.
func (b *Builder) WriteHTML(data *Data) (string, error) {
	md, err := b.Markdown(data)
	if err != nil {
		return "", err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Flu symptom exploratory analysis",
		Flags: html.CommonFlags | html.CompletePage,
	})
	page := markdown.ToHTML(md, p, renderer)

	filename := "report.html"
	path := filepath.Join(b.OutDir, filename)
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", errors.RenderError("failed to write report", err)
	}
	log.Printf("[Report] Wrote %s", path)
	return filename, nil
}

// Markdown builds the full report body.
func (b *Builder) Markdown(data *Data) ([]byte, error) {
	if data.BodyTemp == nil || data.Symptoms == nil {
		return nil, errors.InternalError("report data incomplete")
	}

	var w strings.Builder
	w.WriteString("# Flu symptom exploratory analysis\n\n")
	fmt.Fprintf(&w, "Run `%s` over %d encounters (seed %d).\n\n",
		data.Manifest.RunID, data.Manifest.RowCount, data.Manifest.Seed)

	b.writeBodyTemp(&w, data)
	b.writeSymptoms(&w, data)
	b.writeAssociations(&w, data)

	return []byte(w.String()), nil
}

func (b *Builder) writeBodyTemp(w *strings.Builder, data *Data) {
	s := data.BodyTemp
	w.WriteString("## Body temperature\n\n")
	w.WriteString("Body temperature is the only continuous variable in the subset. ")
	w.WriteString("The bulk of patients sit just above the conventional afebrile range, with a long right tail.\n\n")

	w.WriteString("| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(w, "| Mean | %s |\n", f2(s.Mean))
	fmt.Fprintf(w, "| 95%% bootstrap CI | (%s, %s) |\n", f2(s.CILower), f2(s.CIUpper))
	fmt.Fprintf(w, "| Std. deviation | %s |\n", f2(s.StdDev))
	fmt.Fprintf(w, "| Std. error | %s |\n", f2(s.StdErr))
	fmt.Fprintf(w, "| Min / p25 / median / p75 / max | %s / %s / %s / %s / %s |\n\n",
		f2(s.Quantiles.P0), f2(s.Quantiles.P25), f2(s.Quantiles.P50),
		f2(s.Quantiles.P75), f2(s.Quantiles.P100))

	if data.Histogram != "" {
		fmt.Fprintf(w, "![Body temperature distribution](%s)\n\n", data.Histogram)
	}
}

func (b *Builder) writeSymptoms(w *strings.Builder, data *Data) {
	w.WriteString("## Symptom prevalence\n\n")
	w.WriteString("Per-symptom positive counts with proportions and Wald 95% intervals. ")
	w.WriteString("Intervals are computed from the unrounded proportions; the table rounds for display.\n\n")

	w.WriteString("| Symptom | Positives | n | Proportion | 95% CI |\n|---|---|---|---|---|\n")
	for _, rec := range data.Symptoms.All() {
		ci := fmt.Sprintf("(%s, %s)", f2(rec.CILower), f2(rec.CIUpper))
		if rec.Degenerate {
			ci += " (degenerate)"
		}
		fmt.Fprintf(w, "| %s | %d | %d | %s | %s |\n",
			rec.Variable, rec.Positives, rec.SampleSize, f2(rec.Proportion), ci)
	}
	w.WriteString("\n")

	if data.SymptomBars != "" {
		fmt.Fprintf(w, "![Symptom counts](%s)\n\n", data.SymptomBars)
	}
}

func (b *Builder) writeAssociations(w *strings.Builder, data *Data) {
	w.WriteString("## Bivariate associations\n\n")
	w.WriteString("Body temperature split by each symptom, then nausea against each predictor. ")
	w.WriteString("These are descriptive views; no formal testing beyond the logistic smoother below.\n\n")

	for _, fig := range data.Composites {
		fmt.Fprintf(w, "![%s](%s)\n\n", fig.Title, fig.File)
	}
	for _, fig := range data.Contingency {
		fmt.Fprintf(w, "![%s](%s)\n\n", fig.Title, fig.File)
	}

	if data.Curve != nil {
		w.WriteString("### Nausea vs. body temperature\n\n")
		fmt.Fprintf(w,
			"Binomial GLM (logit link) over exact-temperature groups, weighted by group size: intercept %s, slope %s (converged in %d iterations).\n\n",
			f2(data.Curve.Intercept), f2(data.Curve.Slope), data.Curve.Iterations)
	}
	if data.Scatter != "" {
		fmt.Fprintf(w, "![Nausea rate by body temperature](%s)\n\n", data.Scatter)
	}
}

// f2 formats a value rounded to 2 decimal places for display.
func f2(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}

// Round2 rounds to 2 decimal places, ties away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
