package summary

import (
	"math"
	"math/rand"
	"sort"

	"flureport/domain/core"
	domstats "flureport/domain/stats"

	"github.com/montanaflynn/stats"
)

// DefaultResamples is the bootstrap resample count used by the report.
const DefaultResamples = 1000

// ContinuousSummarizer produces point-and-interval summaries of continuous
// variables. The bootstrap generator is passed in explicitly so a fixed
// seed reproduces the interval exactly.
type ContinuousSummarizer struct {
	Resamples int
}

// NewContinuousSummarizer creates a summarizer with the default resample count.
func NewContinuousSummarizer() *ContinuousSummarizer {
	return &ContinuousSummarizer{Resamples: DefaultResamples}
}

// Summarize computes the full summary of one continuous variable: mean with
// a 95% percentile-bootstrap CI, Bessel-corrected standard deviation,
// standard error, and type-7 quantiles at {0,25,50,75,100}%.
func (s *ContinuousSummarizer) Summarize(variable core.VariableKey, data []float64, rng *rand.Rand, seed int64) (*domstats.ContinuousSummary, error) {
	if len(data) == 0 {
		return nil, core.NewEmptySampleError(variable.String())
	}
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewMissingValueError(variable.String(), i)
		}
	}

	mean, _ := stats.Mean(data)
	stdDev, _ := stats.StandardDeviationSample(data)
	stdErr := stdDev / math.Sqrt(float64(len(data)))

	lower, upper := s.bootstrapCI(data, rng)

	q := domstats.QuantileSet{
		P0:   QuantileType7(data, 0),
		P25:  QuantileType7(data, 0.25),
		P50:  QuantileType7(data, 0.50),
		P75:  QuantileType7(data, 0.75),
		P100: QuantileType7(data, 1),
	}

	return domstats.NewContinuousSummary(variable, len(data), mean, lower, upper, stdDev, stdErr, q, s.Resamples, seed)
}

// bootstrapCI runs the nonparametric percentile bootstrap: Resamples draws
// with replacement, each the size of the input, interval = [2.5th, 97.5th]
// percentiles of the resampled means.
func (s *ContinuousSummarizer) bootstrapCI(data []float64, rng *rand.Rand) (lower, upper float64) {
	n := len(data)
	means := make([]float64, s.Resamples)
	resample := make([]float64, n)
	for b := 0; b < s.Resamples; b++ {
		for i := range resample {
			resample[i] = data[rng.Intn(n)]
		}
		m, _ := stats.Mean(resample)
		means[b] = m
	}
	return QuantileType7(means, 0.025), QuantileType7(means, 0.975)
}

// QuantileType7 is the linear-interpolation quantile estimator (the common
// "type 7" method): h = (n-1)p, interpolating between the floor(h)-th and
// next order statistics. montanaflynn's Percentile uses a different rule,
// so the estimator lives here; endpoints match min and max exactly.
func QuantileType7(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
