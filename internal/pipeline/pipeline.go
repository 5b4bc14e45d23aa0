package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"flureport/domain/core"
	"flureport/domain/dataset"
	"flureport/domain/stats"
	"flureport/internal/association"
	"flureport/internal/config"
	"flureport/internal/errors"
	"flureport/internal/figures"
	"flureport/internal/model"
	"flureport/internal/report"
	"flureport/internal/summary"
	"flureport/ports"

	"golang.org/x/sync/errgroup"
)

// Pipeline runs one full report: load → validate → summarize →
// associations → model → figures → report → optional archive. Each run is
// a pure function of the input table and the seed.
type Pipeline struct {
	Reader  ports.TableReaderPort
	RNG     ports.RNGPort
	Archive ports.SummaryArchivePort // nil disables archival

	Cfg config.ReportConfig

	DatasetPath string
}

// New wires a pipeline from its collaborators.
func New(reader ports.TableReaderPort, rng ports.RNGPort, archive ports.SummaryArchivePort, cfg config.ReportConfig, datasetPath string) *Pipeline {
	return &Pipeline{Reader: reader, RNG: rng, Archive: archive, Cfg: cfg, DatasetPath: datasetPath}
}

// Result is what one completed run leaves behind in memory: the manifest
// plus the summary tables the preview server exposes.
type Result struct {
	Manifest *stats.RunManifest
	BodyTemp *stats.ContinuousSummary
	Symptoms *stats.ProportionTable
}

// Run executes the whole pipeline and returns the run result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	table, err := p.Reader.ReadTable(ctx)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInputError, err)
	}

	manifest := stats.NewRunManifest(p.DatasetPath, table.Hash(), table.Rows(), p.Cfg.Seed)
	log.Printf("[Pipeline] Run %s: %d encounters", manifest.RunID, table.Rows())

	bodyTemp, err := p.summarizeBodyTemp(ctx, table)
	if err != nil {
		return nil, err
	}

	symptoms, err := p.summarizeSymptoms(table)
	if err != nil {
		return nil, err
	}

	views := association.NewBuilder(table)
	composites, contingencies, binned, err := buildViews(views)
	if err != nil {
		return nil, err
	}

	curve, err := model.NewLogisticSmoother().Fit(binned)
	if err != nil {
		// A degenerate outcome keeps the scatter but drops the smoother.
		if !core.IsDegenerateError(err) {
			return nil, errors.ModelError("logistic smoother failed", err)
		}
		log.Printf("[Pipeline] Skipping logistic curve: %v", err)
		curve = nil
	}

	data, err := p.renderFigures(ctx, table, symptoms, composites, contingencies, binned, curve)
	if err != nil {
		return nil, err
	}
	data.Manifest = manifest
	data.BodyTemp = bodyTemp
	data.Symptoms = symptoms
	data.Curve = curve

	reportFile, err := report.NewBuilder(p.Cfg.OutDir).WriteHTML(data)
	if err != nil {
		return nil, err
	}

	manifest.Artifacts = collectArtifacts(data, reportFile)
	manifest.RuntimeMs = time.Since(started).Milliseconds()

	if err := p.archive(ctx, manifest, bodyTemp, symptoms); err != nil {
		return nil, err
	}

	log.Printf("[Pipeline] Run %s complete in %dms (%d artifacts)",
		manifest.RunID, manifest.RuntimeMs, len(manifest.Artifacts))
	return &Result{Manifest: manifest, BodyTemp: bodyTemp, Symptoms: symptoms}, nil
}

func (p *Pipeline) summarizeBodyTemp(ctx context.Context, table *dataset.Table) (*stats.ContinuousSummary, error) {
	values, err := table.Numeric(dataset.ColBodyTemp)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInputError, err)
	}
	stream, err := p.RNG.SeededStream(ctx, "bootstrap/"+dataset.ColBodyTemp, p.Cfg.Seed)
	if err != nil {
		return nil, err
	}
	summarizer := summary.NewContinuousSummarizer()
	if p.Cfg.Resamples > 0 {
		summarizer.Resamples = p.Cfg.Resamples
	}
	result, err := summarizer.Summarize(core.VariableKey(dataset.ColBodyTemp), values, stream, p.Cfg.Seed)
	if err != nil {
		return nil, errors.WithCode(summaryCode(err), err)
	}
	return result, nil
}

// summaryCode keeps malformed-data failures coded as input errors; only
// statistical edge cases carry the degenerate code.
func summaryCode(err error) string {
	if core.IsInputError(err) {
		return errors.CodeInputError
	}
	return errors.CodeDegenerateInput
}

func (p *Pipeline) summarizeSymptoms(table *dataset.Table) (*stats.ProportionTable, error) {
	summarizer := summary.NewProportionSummarizer()
	if p.Cfg.FixedN > 0 {
		summarizer = summary.NewProportionSummarizerWithN(p.Cfg.FixedN)
	}

	variables := make([]core.VariableKey, len(dataset.SymptomColumns))
	for i, col := range dataset.SymptomColumns {
		variables[i] = core.VariableKey(col)
	}
	result, err := summarizer.SummarizeAll(variables, func(v core.VariableKey) ([]stats.Level, error) {
		return table.Binary(v.String())
	})
	if err != nil {
		return nil, errors.WithCode(summaryCode(err), err)
	}
	return result, nil
}

func buildViews(views *association.Builder) ([]*stats.GroupedPairs, []*stats.ContingencyTable, *stats.BinnedOutcome, error) {
	outcome := core.VariableKey(dataset.ColNausea)
	temp := core.VariableKey(dataset.ColBodyTemp)

	var composites []*stats.GroupedPairs
	var contingencies []*stats.ContingencyTable
	for _, col := range dataset.SymptomColumns {
		predictor := core.VariableKey(col)

		pairs, err := views.GroupedPairs(predictor, temp)
		if err != nil {
			return nil, nil, nil, errors.WithCode(errors.CodeInputError, err)
		}
		composites = append(composites, pairs)

		contingency, err := views.Contingency(predictor, outcome)
		if err != nil {
			return nil, nil, nil, errors.WithCode(errors.CodeInputError, err)
		}
		contingencies = append(contingencies, contingency)
	}

	binned, err := views.BinnedOutcome(temp, outcome)
	if err != nil {
		return nil, nil, nil, errors.WithCode(errors.CodeInputError, err)
	}
	return composites, contingencies, binned, nil
}

// renderFigures draws all figures, independent ones concurrently. Each
// figure gets its own named RNG stream so concurrency does not perturb
// the jitter under a fixed seed.
func (p *Pipeline) renderFigures(ctx context.Context, table *dataset.Table, symptoms *stats.ProportionTable,
	composites []*stats.GroupedPairs, contingencies []*stats.ContingencyTable,
	binned *stats.BinnedOutcome, curve *stats.LogisticCurve) (*report.Data, error) {

	renderer, err := figures.NewRenderer(p.Cfg.OutDir)
	if err != nil {
		return nil, err
	}

	bodyTemp, err := table.Numeric(dataset.ColBodyTemp)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInputError, err)
	}

	data := &report.Data{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		file, err := renderer.Histogram("fig_bodytemp_hist", bodyTemp,
			"Body temperature distribution", "Body temperature (F)")
		if err != nil {
			return err
		}
		mu.Lock()
		data.Histogram = file
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		file, err := renderer.SymptomBars("fig_symptom_counts", symptoms, "Symptom counts")
		if err != nil {
			return err
		}
		mu.Lock()
		data.SymptomBars = file
		mu.Unlock()
		return nil
	})

	compositeRefs := make([]report.FigureRef, len(composites))
	for i, pairs := range composites {
		i, pairs := i, pairs
		g.Go(func() error {
			name := "fig_bodytemp_by_" + strings.ToLower(pairs.Predictor.String())
			stream, err := p.RNG.SeededStream(gctx, "jitter/"+name, p.Cfg.Seed)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Body temperature by %s", pairs.Predictor)
			file, err := renderer.Composite(name, pairs, title, "Body temperature (F)", stream)
			if err != nil {
				return err
			}
			compositeRefs[i] = report.FigureRef{Title: title, File: file}
			return nil
		})
	}

	contingencyRefs := make([]report.FigureRef, len(contingencies))
	for i, table := range contingencies {
		i, table := i, table
		g.Go(func() error {
			name := "fig_nausea_by_" + strings.ToLower(table.Predictor.String())
			title := fmt.Sprintf("Nausea by %s", table.Predictor)
			file, err := renderer.ContingencyBars(name, table, title)
			if err != nil {
				return err
			}
			contingencyRefs[i] = report.FigureRef{Title: title, File: file}
			return nil
		})
	}

	g.Go(func() error {
		file, err := renderer.BinnedScatter("fig_nausea_vs_bodytemp", binned, curve,
			"Nausea rate by body temperature")
		if err != nil {
			return err
		}
		mu.Lock()
		data.Scatter = file
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.Composites = compositeRefs
	data.Contingency = contingencyRefs
	return data, nil
}

func (p *Pipeline) archive(ctx context.Context, manifest *stats.RunManifest, bodyTemp *stats.ContinuousSummary, symptoms *stats.ProportionTable) error {
	if p.Archive == nil {
		return nil
	}
	if err := p.Archive.SaveRun(ctx, manifest); err != nil {
		return errors.ArchiveError("failed to archive run", err)
	}
	if err := p.Archive.SaveContinuous(ctx, manifest.RunID.String(), bodyTemp); err != nil {
		return errors.ArchiveError("failed to archive continuous summary", err)
	}
	if err := p.Archive.SaveProportions(ctx, manifest.RunID.String(), symptoms); err != nil {
		return errors.ArchiveError("failed to archive proportions", err)
	}
	log.Printf("[Pipeline] Archived run %s", manifest.RunID)
	return nil
}

func collectArtifacts(data *report.Data, reportFile string) []string {
	artifacts := []string{reportFile, data.Histogram, data.SymptomBars, data.Scatter}
	for _, fig := range data.Composites {
		artifacts = append(artifacts, fig.File)
	}
	for _, fig := range data.Contingency {
		artifacts = append(artifacts, fig.File)
	}
	out := artifacts[:0]
	for _, a := range artifacts {
		if a != "" {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}
