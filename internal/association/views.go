package association

import (
	"sort"

	"flureport/domain/core"
	"flureport/domain/dataset"
	"flureport/domain/stats"
)

// Builder prepares paired (predictor, outcome) views for visual
// inspection. No modeling happens here; the logistic smoother consumes the
// binned view downstream.
type Builder struct {
	table *dataset.Table
}

// NewBuilder creates a view builder over a validated table.
func NewBuilder(table *dataset.Table) *Builder {
	return &Builder{table: table}
}

// GroupedPairs splits a continuous outcome by the levels of a binary
// predictor, raw values passed through. Levels appear in Yes, No order;
// a level with zero rows is absent from the result.
func (b *Builder) GroupedPairs(predictor, outcome core.VariableKey) (*stats.GroupedPairs, error) {
	levels, err := b.table.Binary(predictor.String())
	if err != nil {
		return nil, err
	}
	values, err := b.table.Numeric(outcome.String())
	if err != nil {
		return nil, err
	}

	grouped := map[stats.Level][]float64{}
	for i, lv := range levels {
		grouped[lv] = append(grouped[lv], values[i])
	}

	result := &stats.GroupedPairs{
		Predictor: predictor,
		Outcome:   outcome,
		Values:    map[stats.Level][]float64{},
	}
	for _, lv := range []stats.Level{stats.LevelYes, stats.LevelNo} {
		if vals, ok := grouped[lv]; ok {
			result.Levels = append(result.Levels, lv)
			result.Values[lv] = vals
		}
	}
	return result, nil
}

// Contingency builds the binary-by-binary view: within each predictor
// level, the share of each outcome level, straight from counts. A
// zero-variance predictor yields a single-level table rather than an error.
func (b *Builder) Contingency(predictor, outcome core.VariableKey) (*stats.ContingencyTable, error) {
	predLevels, err := b.table.Binary(predictor.String())
	if err != nil {
		return nil, err
	}
	outLevels, err := b.table.Binary(outcome.String())
	if err != nil {
		return nil, err
	}

	counts := map[stats.Level]map[stats.Level]int{}
	totals := map[stats.Level]int{}
	for i := range predLevels {
		p, o := predLevels[i], outLevels[i]
		if counts[p] == nil {
			counts[p] = map[stats.Level]int{}
		}
		counts[p][o]++
		totals[p]++
	}

	table := &stats.ContingencyTable{Predictor: predictor, Outcome: outcome}
	for _, p := range []stats.Level{stats.LevelYes, stats.LevelNo} {
		total, present := totals[p]
		if !present {
			continue
		}
		for _, o := range []stats.Level{stats.LevelYes, stats.LevelNo} {
			table.Cells = append(table.Cells, stats.ContingencyCell{
				PredictorLevel: p,
				OutcomeLevel:   o,
				Count:          counts[p][o],
				Share:          float64(counts[p][o]) / float64(total),
			})
		}
	}
	return table, nil
}

// BinnedOutcome groups rows by exact covariate value and computes the mean
// of the 0/1-recoded outcome within each group, weighted by group size.
// Points come back sorted by covariate value.
func (b *Builder) BinnedOutcome(covariate, outcome core.VariableKey) (*stats.BinnedOutcome, error) {
	xs, err := b.table.Numeric(covariate.String())
	if err != nil {
		return nil, err
	}
	ys, err := b.table.Recode01(outcome.String())
	if err != nil {
		return nil, err
	}

	sums := map[float64]float64{}
	weights := map[float64]int{}
	for i, x := range xs {
		sums[x] += ys[i]
		weights[x]++
	}

	binned := &stats.BinnedOutcome{Covariate: covariate, Outcome: outcome}
	for x, w := range weights {
		binned.Points = append(binned.Points, stats.BinnedPoint{
			X:      x,
			Rate:   sums[x] / float64(w),
			Weight: w,
		})
	}
	sort.Slice(binned.Points, func(i, j int) bool {
		return binned.Points[i].X < binned.Points[j].X
	})
	return binned, nil
}
