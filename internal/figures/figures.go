package figures

import (
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"flureport/domain/stats"
	"flureport/internal/errors"

	moremath "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Renderer draws the report's static figures as PNG files in OutDir.
// Every method returns the written filename relative to OutDir so the
// report and the run manifest can reference it.
type Renderer struct {
	OutDir string

	Width  vg.Length
	Height vg.Length
}

// NewRenderer creates a renderer writing into outDir, creating it if needed.
func NewRenderer(outDir string) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.RenderError("failed to create output directory", err)
	}
	return &Renderer{OutDir: outDir, Width: 6 * vg.Inch, Height: 4 * vg.Inch}, nil
}

// Histogram renders the distribution of a continuous variable.
func (r *Renderer) Histogram(name string, values []float64, title, xLabel string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Count"

	hist, err := plotter.NewHist(plotter.Values(values), 16)
	if err != nil {
		return "", errors.RenderError("failed to build histogram", err)
	}
	hist.FillColor = plotutil.Color(0)
	p.Add(hist)

	return r.save(p, name)
}

// SymptomBars renders positive counts per symptom as a bar chart, bars in
// input column order.
func (r *Renderer) SymptomBars(name string, table *stats.ProportionTable, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Patients reporting symptom"

	records := table.All()
	counts := make(plotter.Values, len(records))
	labels := make([]string, len(records))
	for i, rec := range records {
		counts[i] = float64(rec.Positives)
		labels[i] = rec.Variable.String()
	}

	bars, err := plotter.NewBarChart(counts, vg.Points(28))
	if err != nil {
		return "", errors.RenderError("failed to build bar chart", err)
	}
	bars.Color = plotutil.Color(1)
	p.Add(bars)
	p.NominalX(labels...)

	return r.save(p, name)
}

// Composite renders a continuous outcome split by a binary predictor as
// jittered points, a box glyph, and a KDE violin outline per level. The
// jitter generator is passed in so figures are reproducible under a fixed
// seed.
func (r *Renderer) Composite(name string, pairs *stats.GroupedPairs, title, yLabel string, rng *rand.Rand) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = pairs.Predictor.String()
	p.Y.Label.Text = yLabel

	labels := make([]string, len(pairs.Levels))
	for i, level := range pairs.Levels {
		labels[i] = string(level)
		values := pairs.Values[level]
		loc := float64(i)

		if violin := violinPolygon(values, loc); violin != nil {
			p.Add(violin)
		}

		jittered := make(plotter.XYs, len(values))
		for j, v := range values {
			jittered[j].X = loc + (rng.Float64()-0.5)*0.24
			jittered[j].Y = v
		}
		points, err := plotter.NewScatter(jittered)
		if err != nil {
			return "", errors.RenderError("failed to build jittered points", err)
		}
		points.GlyphStyle = draw.GlyphStyle{
			Color:  color.NRGBA{R: 60, G: 60, B: 60, A: 110},
			Radius: vg.Points(1.6),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(points)

		box, err := plotter.NewBoxPlot(vg.Points(18), loc, plotter.Values(values))
		if err != nil {
			return "", errors.RenderError("failed to build box plot", err)
		}
		p.Add(box)
	}
	p.NominalX(labels...)

	return r.save(p, name)
}

// violinPolygon builds a symmetric KDE outline around the level's x
// location. Returns nil for degenerate samples the KDE cannot describe.
func violinPolygon(values []float64, loc float64) *plotter.Polygon {
	if len(values) < 2 {
		return nil
	}
	sample := moremath.Sample{Xs: values}
	if sample.StdDev() == 0 {
		return nil
	}
	kde := &moremath.KDE{Sample: sample}
	low, high := kde.Bounds()
	if low >= high {
		return nil
	}

	const steps = 40
	densities := make([]float64, steps+1)
	maxDensity := 0.0
	for i := 0; i <= steps; i++ {
		y := low + (high-low)*float64(i)/steps
		densities[i] = kde.PDF(y)
		if densities[i] > maxDensity {
			maxDensity = densities[i]
		}
	}
	if maxDensity == 0 {
		return nil
	}

	// Right side top to bottom, then left side bottom to top.
	const halfWidth = 0.38
	outline := make(plotter.XYs, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		y := low + (high-low)*float64(i)/steps
		outline = append(outline, plotter.XY{X: loc + halfWidth*densities[i]/maxDensity, Y: y})
	}
	for i := steps; i >= 0; i-- {
		y := low + (high-low)*float64(i)/steps
		outline = append(outline, plotter.XY{X: loc - halfWidth*densities[i]/maxDensity, Y: y})
	}

	violin, err := plotter.NewPolygon(outline)
	if err != nil {
		return nil
	}
	violin.Color = color.NRGBA{R: 120, G: 160, B: 200, A: 60}
	return violin
}

// ContingencyBars renders within-predictor-level outcome shares as grouped
// bars, one group per predictor level present in the data.
func (r *Renderer) ContingencyBars(name string, table *stats.ContingencyTable, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = table.Predictor.String()
	p.Y.Label.Text = fmt.Sprintf("Share of %s", table.Outcome)
	p.Y.Max = 1

	// One bar series per outcome level, offset around the level tick.
	shares := map[stats.Level]plotter.Values{}
	var predictorLabels []string
	seen := map[stats.Level]bool{}
	for _, cell := range table.Cells {
		if !seen[cell.PredictorLevel] {
			seen[cell.PredictorLevel] = true
			predictorLabels = append(predictorLabels, string(cell.PredictorLevel))
		}
	}
	for _, cell := range table.Cells {
		shares[cell.OutcomeLevel] = append(shares[cell.OutcomeLevel], cell.Share)
	}

	offset := -vg.Points(12)
	colorIdx := 0
	for _, outcomeLevel := range []stats.Level{stats.LevelYes, stats.LevelNo} {
		values, ok := shares[outcomeLevel]
		if !ok {
			continue
		}
		bars, err := plotter.NewBarChart(values, vg.Points(22))
		if err != nil {
			return "", errors.RenderError("failed to build grouped bars", err)
		}
		bars.Color = plotutil.Color(colorIdx)
		bars.Offset = offset
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("%s = %s", table.Outcome, outcomeLevel), bars)
		offset += vg.Points(24)
		colorIdx++
	}
	p.Legend.Top = true
	p.NominalX(predictorLabels...)

	return r.save(p, name)
}

// BinnedScatter renders the grouped outcome rates against the covariate,
// point area scaled by group weight, with the fitted logistic curve and
// its confidence band overlaid.
func (r *Renderer) BinnedScatter(name string, binned *stats.BinnedOutcome, curve *stats.LogisticCurve, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = binned.Covariate.String()
	p.Y.Label.Text = fmt.Sprintf("P(%s = Yes)", binned.Outcome)
	p.Y.Min, p.Y.Max = -0.05, 1.05

	if curve != nil && len(curve.Points) > 0 {
		band := make(plotter.XYs, 0, 2*len(curve.Points))
		for _, cp := range curve.Points {
			band = append(band, plotter.XY{X: cp.X, Y: cp.Upper})
		}
		for i := len(curve.Points) - 1; i >= 0; i-- {
			band = append(band, plotter.XY{X: curve.Points[i].X, Y: curve.Points[i].Lower})
		}
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return "", errors.RenderError("failed to build confidence band", err)
		}
		poly.Color = color.NRGBA{R: 100, G: 100, B: 100, A: 50}
		p.Add(poly)

		fitted := make(plotter.XYs, len(curve.Points))
		for i, cp := range curve.Points {
			fitted[i].X, fitted[i].Y = cp.X, cp.P
		}
		line, err := plotter.NewLine(fitted)
		if err != nil {
			return "", errors.RenderError("failed to build fitted curve", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(2)
		p.Add(line)
		p.Legend.Add("logistic fit", line)
	}

	points := make(plotter.XYs, len(binned.Points))
	weights := make([]int, len(binned.Points))
	maxWeight := 1
	for i, bp := range binned.Points {
		points[i].X, points[i].Y = bp.X, bp.Rate
		weights[i] = bp.Weight
		if bp.Weight > maxWeight {
			maxWeight = bp.Weight
		}
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return "", errors.RenderError("failed to build binned scatter", err)
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		scale := float64(weights[i]) / float64(maxWeight)
		return draw.GlyphStyle{
			Color:  color.NRGBA{R: 40, G: 80, B: 140, A: 180},
			Radius: vg.Points(2 + 5*scale),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)
	p.Legend.Top = true

	return r.save(p, name)
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	filename := name + ".png"
	path := filepath.Join(r.OutDir, filename)
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return "", errors.RenderError(fmt.Sprintf("failed to save %s", filename), err)
	}
	log.Printf("[Figures] Wrote %s", path)
	return filename, nil
}
