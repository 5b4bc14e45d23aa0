package summary

import (
	"math"

	"flureport/domain/core"
	domstats "flureport/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// ProportionSummarizer produces proportion estimates with Wald 95%
// confidence intervals for binary Yes/No variables.
type ProportionSummarizer struct {
	// FixedN, when positive, is used as the standard-error denominator
	// for every variable instead of that variable's own sample size.
	// This reproduces the published report, which reused the overall
	// dataset size; with no missing data the two coincide.
	FixedN int

	z float64
}

// NewProportionSummarizer creates a summarizer using each variable's own
// sample size in the standard error.
func NewProportionSummarizer() *ProportionSummarizer {
	return &ProportionSummarizer{z: waldZ()}
}

// NewProportionSummarizerWithN creates a summarizer that pins the
// standard-error denominator to n.
func NewProportionSummarizerWithN(n int) *ProportionSummarizer {
	return &ProportionSummarizer{FixedN: n, z: waldZ()}
}

// waldZ is the 0.975 standard-normal quantile, taken from the distribution
// rather than hard-coding 1.96.
func waldZ() float64 {
	return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)
}

// Summarize computes {positive count, proportion, Wald CI} for one binary
// variable. The proportion is exact k/n; the interval is computed from the
// UNROUNDED proportion. A proportion of exactly 0 or 1 collapses the Wald
// interval, so the record is flagged degenerate instead of reported as a
// trustworthy interval.
func (s *ProportionSummarizer) Summarize(variable core.VariableKey, levels []domstats.Level) (*domstats.ProportionSummary, error) {
	if len(levels) == 0 {
		return nil, core.NewEmptySampleError(variable.String())
	}

	positives := 0
	for i, lv := range levels {
		switch lv {
		case domstats.LevelYes:
			positives++
		case domstats.LevelNo:
		default:
			return nil, core.NewBadCategoryError(variable.String(), string(lv), i)
		}
	}

	n := len(levels)
	p := float64(positives) / float64(n)

	seN := n
	if s.FixedN > 0 {
		seN = s.FixedN
	}
	halfWidth := s.z * math.Sqrt(p*(1-p)/float64(seN))

	return &domstats.ProportionSummary{
		Variable:   variable,
		Positives:  positives,
		SampleSize: n,
		Proportion: p,
		CILower:    p - halfWidth,
		CIUpper:    p + halfWidth,
		Degenerate: positives == 0 || positives == n,
	}, nil
}

// SummarizeAll builds the per-symptom proportion table, iteration order =
// input column order, keys unique.
func (s *ProportionSummarizer) SummarizeAll(variables []core.VariableKey, values func(core.VariableKey) ([]domstats.Level, error)) (*domstats.ProportionTable, error) {
	table := domstats.NewProportionTable()
	for _, variable := range variables {
		levels, err := values(variable)
		if err != nil {
			return nil, err
		}
		rec, err := s.Summarize(variable, levels)
		if err != nil {
			return nil, err
		}
		if err := table.Add(*rec); err != nil {
			return nil, err
		}
	}
	return table, nil
}
