package summary

import (
	"math"
	"math/rand"
	"testing"

	"flureport/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeBodyTempScenario(t *testing.T) {
	data := []float64{98.0, 98.0, 99.0, 100.0, 104.0}
	s := NewContinuousSummarizer()

	result, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(42)), 42)
	require.NoError(t, err)

	assert.Equal(t, 5, result.SampleSize)
	assert.InDelta(t, 99.8, result.Mean, 1e-12)
	assert.InDelta(t, 99.0, result.Quantiles.P50, 1e-12)
	assert.InDelta(t, 98.0, result.Quantiles.P0, 1e-12)
	assert.InDelta(t, 104.0, result.Quantiles.P100, 1e-12)
	// Bessel-corrected: sqrt(24.8/4)
	assert.InDelta(t, 2.4899799, result.StdDev, 1e-6)
	assert.InDelta(t, result.StdDev/math.Sqrt(5), result.StdErr, 1e-12)
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := NewContinuousSummarizer()
	_, err := s.Summarize("BodyTemp", nil, rand.New(rand.NewSource(1)), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptySample)
}

func TestSummarizeRejectsNonFiniteValues(t *testing.T) {
	s := NewContinuousSummarizer()

	data := []float64{98.2, 98.6, math.NaN(), 99.1}
	_, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(1)), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingValue)
	assert.Contains(t, err.Error(), "row 2")

	data = []float64{98.2, math.Inf(1), 98.2, math.Inf(1)}
	_, err = s.Summarize("BodyTemp", data, rand.New(rand.NewSource(1)), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestBootstrapCIBracketsMean(t *testing.T) {
	data := []float64{97.2, 98.1, 98.6, 98.8, 99.0, 99.4, 100.2, 101.5, 102.9}
	s := NewContinuousSummarizer()

	for _, seed := range []int64{1, 7, 42, 9999} {
		result, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(seed)), seed)
		require.NoError(t, err)
		assert.LessOrEqual(t, result.CILower, result.Mean, "seed %d", seed)
		assert.GreaterOrEqual(t, result.CIUpper, result.Mean, "seed %d", seed)
	}
}

func TestBootstrapFixedSeedIdempotent(t *testing.T) {
	data := []float64{98.2, 98.6, 99.1, 99.5, 100.4, 101.0, 97.9, 98.8}
	s := NewContinuousSummarizer()

	first, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(42)), 42)
	require.NoError(t, err)
	second, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(42)), 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBootstrapSeedChangesInterval(t *testing.T) {
	data := []float64{98.2, 98.6, 99.1, 99.5, 100.4, 101.0, 97.9, 98.8}
	s := NewContinuousSummarizer()

	a, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(1)), 1)
	require.NoError(t, err)
	b, err := s.Summarize("BodyTemp", data, rand.New(rand.NewSource(2)), 2)
	require.NoError(t, err)

	// Different draws, different percentile endpoints.
	assert.NotEqual(t, a.CILower, b.CILower)
}

func TestQuantileType7(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		p    float64
		want float64
	}{
		{"min", []float64{3, 1, 2}, 0, 1},
		{"max", []float64{3, 1, 2}, 1, 3},
		{"median odd", []float64{5, 1, 3}, 0.5, 3},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p25 interpolated", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"p75 interpolated", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"single value", []float64{7}, 0.5, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, QuantileType7(tt.data, tt.p), 1e-12)
		})
	}
}

func TestQuantileType7DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	QuantileType7(data, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, data)
}
