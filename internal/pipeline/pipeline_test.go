package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"flureport/adapters/rng"
	"flureport/adapters/tabular"
	"flureport/domain/dataset"
	"flureport/domain/stats"
	"flureport/internal/config"
	"flureport/internal/errors"
	"flureport/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	table *dataset.Table
}

func (r stubReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	return r.table, nil
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) SaveRun(ctx context.Context, manifest *stats.RunManifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *mockArchive) SaveContinuous(ctx context.Context, runID string, summary *stats.ContinuousSummary) error {
	args := m.Called(ctx, runID, summary)
	return args.Error(0)
}

func (m *mockArchive) SaveProportions(ctx context.Context, runID string, table *stats.ProportionTable) error {
	args := m.Called(ctx, runID, table)
	return args.Error(0)
}

func fixtureCSV(t *testing.T, rows int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encounters.csv")
	require.NoError(t, testkit.NewTestKit(11).WriteCSV(path, rows))
	return path
}

func newPipeline(dataPath, outDir string) *Pipeline {
	cfg := config.ReportConfig{OutDir: outDir, Seed: 42, Resamples: 200}
	return New(tabular.NewReader(dataPath), rng.New(), nil, cfg, dataPath)
}

func TestRunEndToEnd(t *testing.T) {
	dataPath := fixtureCSV(t, 200)
	outDir := t.TempDir()

	result, err := newPipeline(dataPath, outDir).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, result.Manifest.RowCount)
	assert.Equal(t, int64(42), result.Manifest.Seed)
	assert.NotEmpty(t, result.Manifest.DatasetHash)

	require.NotNil(t, result.BodyTemp)
	assert.Equal(t, 200, result.BodyTemp.SampleSize)
	assert.LessOrEqual(t, result.BodyTemp.CILower, result.BodyTemp.Mean)
	assert.LessOrEqual(t, result.BodyTemp.Mean, result.BodyTemp.CIUpper)

	require.NotNil(t, result.Symptoms)
	assert.Len(t, result.Symptoms.All(), 5)

	// report.html plus 13 figures: histogram, symptom bars, scatter, five
	// composites, five contingency charts.
	assert.Len(t, result.Manifest.Artifacts, 14)
	assert.Contains(t, result.Manifest.Artifacts, "report.html")
	for _, artifact := range result.Manifest.Artifacts {
		_, err := os.Stat(filepath.Join(outDir, artifact))
		assert.NoError(t, err, artifact)
	}
}

func TestRunFixedSeedIdempotent(t *testing.T) {
	dataPath := fixtureCSV(t, 150)

	first, err := newPipeline(dataPath, t.TempDir()).Run(context.Background())
	require.NoError(t, err)
	second, err := newPipeline(dataPath, t.TempDir()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.BodyTemp, second.BodyTemp)
	assert.Equal(t, first.Symptoms, second.Symptoms)
	assert.Equal(t, first.Manifest.DatasetHash, second.Manifest.DatasetHash)
}

func TestRunArchivesSummaries(t *testing.T) {
	dataPath := fixtureCSV(t, 100)

	archive := &mockArchive{}
	archive.On("SaveRun", mock.Anything, mock.Anything).Return(nil)
	archive.On("SaveContinuous", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	archive.On("SaveProportions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := config.ReportConfig{OutDir: t.TempDir(), Seed: 42, Resamples: 100}
	p := New(tabular.NewReader(dataPath), rng.New(), archive, cfg, dataPath)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	archive.AssertExpectations(t)
	archive.AssertCalled(t, "SaveContinuous", mock.Anything, result.Manifest.RunID.String(), result.BodyTemp)
}

func TestRunArchiveFailureSurfaces(t *testing.T) {
	dataPath := fixtureCSV(t, 100)

	archive := &mockArchive{}
	archive.On("SaveRun", mock.Anything, mock.Anything).Return(assert.AnError)

	cfg := config.ReportConfig{OutDir: t.TempDir(), Seed: 42, Resamples: 100}
	p := New(tabular.NewReader(dataPath), rng.New(), archive, cfg, dataPath)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeArchiveError, errors.GetCode(err))
}

func TestRunZeroVarianceNauseaSkipsCurve(t *testing.T) {
	// Valid data with an all-No outcome: the run must complete with the
	// binned scatter kept and the curve section omitted.
	dataPath := filepath.Join(t.TempDir(), "encounters.csv")
	csv := "BodyTemp,Nausea,CoughYN,WeaknessYN,MyalgiaYN,ChillsSweats,SubjectiveFever\n" +
		"98.1,No,Yes,No,Yes,No,Yes\n" +
		"98.1,No,No,Yes,No,Yes,No\n" +
		"98.6,No,Yes,Yes,No,No,Yes\n" +
		"98.6,No,Yes,No,Yes,Yes,No\n" +
		"99.2,No,No,Yes,No,Yes,Yes\n" +
		"99.2,No,Yes,No,Yes,No,No\n" +
		"100.4,No,Yes,Yes,No,Yes,Yes\n" +
		"100.4,No,No,No,Yes,No,No\n"
	require.NoError(t, os.WriteFile(dataPath, []byte(csv), 0644))

	outDir := t.TempDir()
	result, err := newPipeline(dataPath, outDir).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Manifest.Artifacts, "fig_nausea_vs_bodytemp.png")

	page, err := os.ReadFile(filepath.Join(outDir, "report.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(page), "Nausea vs. body temperature")
}

func TestRunBadCategoryIsInputError(t *testing.T) {
	columns := append([]string{dataset.ColBodyTemp, dataset.ColNausea}, dataset.SymptomColumns...)
	binary := map[string][]stats.Level{}
	for _, col := range columns[1:] {
		binary[col] = []stats.Level{stats.LevelYes, stats.LevelNo}
	}
	binary[dataset.ColCoughYN] = []stats.Level{stats.LevelYes, "Maybe"}
	table, err := dataset.NewTable(columns,
		map[string][]float64{dataset.ColBodyTemp: {98.6, 99.1}}, binary, 2)
	require.NoError(t, err)

	cfg := config.ReportConfig{OutDir: t.TempDir(), Seed: 42, Resamples: 100}
	p := New(stubReader{table: table}, rng.New(), nil, cfg, "stub")

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputError, errors.GetCode(err))
}

func TestRunMissingInputFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")

	_, err := newPipeline(missing, t.TempDir()).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputError, errors.GetCode(err))
}

func TestRunFixedNAppliedToProportions(t *testing.T) {
	dataPath := fixtureCSV(t, 120)

	cfg := config.ReportConfig{OutDir: t.TempDir(), Seed: 42, Resamples: 100, FixedN: 120}
	p := New(tabular.NewReader(dataPath), rng.New(), nil, cfg, dataPath)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// Complete data: the fixed denominator equals each variable's own n, so
	// the records match a default run over the same fixture.
	defaultRun, err := newPipeline(dataPath, t.TempDir()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultRun.Symptoms, result.Symptoms)
}
