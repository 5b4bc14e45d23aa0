package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flureport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportData(t *testing.T) *Data {
	t.Helper()
	bodyTemp, err := stats.NewContinuousSummary("BodyTemp", 730,
		98.94, 98.87, 99.01, 1.20, 0.0444,
		stats.QuantileSet{P0: 97.2, P25: 98.2, P50: 98.5, P75: 99.3, P100: 103.1},
		1000, 42)
	require.NoError(t, err)

	symptoms := stats.NewProportionTable()
	require.NoError(t, symptoms.Add(stats.ProportionSummary{
		Variable: "CoughYN", Positives: 662, SampleSize: 730,
		Proportion: 662.0 / 730.0, CILower: 0.8835, CIUpper: 0.9302,
	}))
	require.NoError(t, symptoms.Add(stats.ProportionSummary{
		Variable: "SubjectiveFever", Positives: 0, SampleSize: 730,
		Proportion: 0, CILower: 0, CIUpper: 0, Degenerate: true,
	}))

	manifest := stats.NewRunManifest("data/encounters.csv", "abc123", 730, 42)

	return &Data{
		Manifest:  manifest,
		BodyTemp:  bodyTemp,
		Symptoms:  symptoms,
		Histogram: "bodytemp_hist.png",
		Composites: []FigureRef{
			{Title: "Body temperature by CoughYN", File: "bodytemp_by_coughyn.png"},
		},
		Curve: &stats.LogisticCurve{
			Covariate: "BodyTemp", Outcome: "Nausea",
			Intercept: -22.1417, Slope: 0.2012, Iterations: 6,
		},
		Scatter: "nausea_by_bodytemp.png",
	}
}

func TestMarkdownRoundsForDisplayOnly(t *testing.T) {
	data := reportData(t)

	md, err := NewBuilder(t.TempDir()).Markdown(data)
	require.NoError(t, err)
	body := string(md)

	// Mean printed at 2 dp, CI at 2 dp; the summary itself stays full
	// precision.
	assert.Contains(t, body, "| Mean | 98.94 |")
	assert.Contains(t, body, "(98.87, 99.01)")
	assert.Contains(t, body, "| Std. error | 0.04 |")
	assert.InDelta(t, 0.0444, data.BodyTemp.StdErr, 1e-12)

	// 662/730 = 0.90684... rounds to 0.91.
	assert.Contains(t, body, "| CoughYN | 662 | 730 | 0.91 | (0.88, 0.93) |")
	assert.Contains(t, body, "(degenerate)")
}

func TestMarkdownIncludesFiguresAndCurve(t *testing.T) {
	data := reportData(t)

	md, err := NewBuilder(t.TempDir()).Markdown(data)
	require.NoError(t, err)
	body := string(md)

	assert.Contains(t, body, "![Body temperature distribution](bodytemp_hist.png)")
	assert.Contains(t, body, "![Body temperature by CoughYN](bodytemp_by_coughyn.png)")
	assert.Contains(t, body, "intercept -22.14, slope 0.20 (converged in 6 iterations)")
	assert.Contains(t, body, "seed 42")
}

func TestMarkdownOmitsCurveSectionWhenAbsent(t *testing.T) {
	data := reportData(t)
	data.Curve = nil
	data.Scatter = ""

	md, err := NewBuilder(t.TempDir()).Markdown(data)
	require.NoError(t, err)

	assert.NotContains(t, string(md), "### Nausea vs. body temperature")
}

func TestMarkdownIncompleteData(t *testing.T) {
	_, err := NewBuilder(t.TempDir()).Markdown(&Data{})
	assert.Error(t, err)
}

func TestWriteHTMLProducesCompletePage(t *testing.T) {
	outDir := t.TempDir()
	filename, err := NewBuilder(outDir).WriteHTML(reportData(t))
	require.NoError(t, err)
	assert.Equal(t, "report.html", filename)

	page, err := os.ReadFile(filepath.Join(outDir, filename))
	require.NoError(t, err)
	html := string(page)

	assert.True(t, strings.Contains(html, "<html"))
	assert.Contains(t, html, "Flu symptom exploratory analysis")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "bodytemp_hist.png")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.91, Round2(662.0/730.0))
	assert.Equal(t, 98.94, Round2(98.9444))
	assert.Equal(t, -22.14, Round2(-22.1417))
	assert.Equal(t, 0.05, Round2(0.045)) // ties away from zero
}
