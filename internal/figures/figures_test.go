package figures

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"flureport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRendered(t *testing.T, outDir, filename string) {
	t.Helper()
	info, err := os.Stat(filepath.Join(outDir, filename))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogramRendersPNG(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	values := []float64{97.8, 98.2, 98.2, 98.6, 98.9, 99.3, 100.1, 101.4}
	file, err := r.Histogram("fig_bodytemp_hist", values, "Body temperature distribution", "Body temperature (F)")
	require.NoError(t, err)

	assert.Equal(t, "fig_bodytemp_hist.png", file)
	assertRendered(t, outDir, file)
}

func TestSymptomBarsRendersPNG(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	table := stats.NewProportionTable()
	require.NoError(t, table.Add(stats.ProportionSummary{Variable: "CoughYN", Positives: 662, SampleSize: 730, Proportion: 0.91}))
	require.NoError(t, table.Add(stats.ProportionSummary{Variable: "MyalgiaYN", Positives: 401, SampleSize: 730, Proportion: 0.55}))

	file, err := r.SymptomBars("fig_symptom_counts", table, "Symptom counts")
	require.NoError(t, err)
	assertRendered(t, outDir, file)
}

func TestCompositeRendersPNG(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	pairs := &stats.GroupedPairs{
		Predictor: "CoughYN",
		Outcome:   "BodyTemp",
		Levels:    []stats.Level{stats.LevelYes, stats.LevelNo},
		Values: map[stats.Level][]float64{
			stats.LevelYes: {98.1, 98.5, 99.2, 100.3, 98.8},
			stats.LevelNo:  {97.9, 98.3, 98.4},
		},
	}

	file, err := r.Composite("fig_bodytemp_by_coughyn", pairs,
		"Body temperature by CoughYN", "Body temperature (F)", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assertRendered(t, outDir, file)
}

func TestCompositeDegenerateLevelSkipsViolin(t *testing.T) {
	// A single-value level has no spread; the violin is skipped but the
	// figure still renders.
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	pairs := &stats.GroupedPairs{
		Predictor: "SubjectiveFever",
		Outcome:   "BodyTemp",
		Levels:    []stats.Level{stats.LevelYes},
		Values:    map[stats.Level][]float64{stats.LevelYes: {98.6}},
	}

	file, err := r.Composite("fig_single_level", pairs,
		"Body temperature by SubjectiveFever", "Body temperature (F)", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assertRendered(t, outDir, file)
}

func TestContingencyBarsRendersPNG(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	table := &stats.ContingencyTable{
		Predictor: "CoughYN",
		Outcome:   "Nausea",
		Cells: []stats.ContingencyCell{
			{PredictorLevel: stats.LevelYes, OutcomeLevel: stats.LevelYes, Count: 150, Share: 0.23},
			{PredictorLevel: stats.LevelYes, OutcomeLevel: stats.LevelNo, Count: 512, Share: 0.77},
			{PredictorLevel: stats.LevelNo, OutcomeLevel: stats.LevelYes, Count: 10, Share: 0.15},
			{PredictorLevel: stats.LevelNo, OutcomeLevel: stats.LevelNo, Count: 58, Share: 0.85},
		},
	}

	file, err := r.ContingencyBars("fig_nausea_by_coughyn", table, "Nausea by CoughYN")
	require.NoError(t, err)
	assertRendered(t, outDir, file)
}

func TestBinnedScatterRendersWithAndWithoutCurve(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRenderer(outDir)
	require.NoError(t, err)

	binned := &stats.BinnedOutcome{
		Covariate: "BodyTemp",
		Outcome:   "Nausea",
		Points: []stats.BinnedPoint{
			{X: 98.0, Rate: 0.1, Weight: 120},
			{X: 99.0, Rate: 0.3, Weight: 60},
			{X: 100.5, Rate: 0.6, Weight: 15},
		},
	}
	curve := &stats.LogisticCurve{
		Covariate: "BodyTemp",
		Outcome:   "Nausea",
		Points: []stats.CurvePoint{
			{X: 98.0, P: 0.1, Lower: 0.05, Upper: 0.2},
			{X: 99.2, P: 0.3, Lower: 0.2, Upper: 0.45},
			{X: 100.5, P: 0.6, Lower: 0.4, Upper: 0.8},
		},
	}

	withCurve, err := r.BinnedScatter("fig_nausea_vs_bodytemp", binned, curve, "Nausea rate by body temperature")
	require.NoError(t, err)
	assertRendered(t, outDir, withCurve)

	withoutCurve, err := r.BinnedScatter("fig_nausea_vs_bodytemp_nocurve", binned, nil, "Nausea rate by body temperature")
	require.NoError(t, err)
	assertRendered(t, outDir, withoutCurve)
}
