package stats

import (
	"fmt"

	"flureport/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// Level is a binary category level as it appears in the source data.
type Level string

const (
	LevelYes Level = "Yes"
	LevelNo  Level = "No"
)

// QuantileSet holds type-7 quantile estimates keyed by percentage label.
// INVARIANTS:
// - P0 <= P25 <= P50 <= P75 <= P100
// - P0 = sample minimum, P100 = sample maximum
type QuantileSet struct {
	P0   float64 `json:"p0"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P100 float64 `json:"p100"`
}

// ContinuousSummary is the point-and-interval summary of one continuous
// variable. Values are full precision; callers round for display.
// INVARIANTS:
// - SampleSize (N) always present and > 0
// - CILower <= Mean <= CIUpper (structural guarantee of the percentile bootstrap)
type ContinuousSummary struct {
	Variable   core.VariableKey `json:"variable"`
	SampleSize int              `json:"sample_size"`
	Mean       float64          `json:"mean"`
	CILower    float64          `json:"ci_lower"`
	CIUpper    float64          `json:"ci_upper"`
	StdDev     float64          `json:"std_dev"`
	StdErr     float64          `json:"std_err"`
	Quantiles  QuantileSet      `json:"quantiles"`
	Resamples  int              `json:"resamples"`
	Seed       int64            `json:"seed"`
}

// ProportionSummary is the proportion estimate of one binary variable with
// its Wald interval. CI bounds are computed from the unrounded proportion.
type ProportionSummary struct {
	Variable   core.VariableKey `json:"variable"`
	Positives  int              `json:"positives"`
	SampleSize int              `json:"sample_size"`
	Proportion float64          `json:"proportion"`
	CILower    float64          `json:"ci_lower"`
	CIUpper    float64          `json:"ci_upper"`
	Degenerate bool             `json:"degenerate"` // p is exactly 0 or 1; Wald interval collapses
}

// ProportionTable is the per-symptom proportion summaries in input column
// order, keyed uniquely by variable name.
type ProportionTable struct {
	Order   []core.VariableKey                     `json:"order"`
	Records map[core.VariableKey]ProportionSummary `json:"records"`
}

// NewProportionTable creates an empty table preserving insertion order.
func NewProportionTable() *ProportionTable {
	return &ProportionTable{
		Order:   []core.VariableKey{},
		Records: make(map[core.VariableKey]ProportionSummary),
	}
}

// Add appends a record, enforcing key uniqueness.
func (t *ProportionTable) Add(rec ProportionSummary) error {
	if _, dup := t.Records[rec.Variable]; dup {
		return fmt.Errorf("duplicate proportion record for %s", rec.Variable)
	}
	t.Order = append(t.Order, rec.Variable)
	t.Records[rec.Variable] = rec
	return nil
}

// All returns records in column order.
func (t *ProportionTable) All() []ProportionSummary {
	out := make([]ProportionSummary, 0, len(t.Order))
	for _, key := range t.Order {
		out = append(out, t.Records[key])
	}
	return out
}

// ============================================================================
// ASSOCIATION VIEWS (inputs to figures, no modeling beyond the GLM curve)
// ============================================================================

// GroupedPairs holds a continuous outcome split by the levels of a binary
// predictor, raw values passed through for point/violin/box rendering.
type GroupedPairs struct {
	Predictor core.VariableKey    `json:"predictor"`
	Outcome   core.VariableKey    `json:"outcome"`
	Levels    []Level             `json:"levels"`
	Values    map[Level][]float64 `json:"values"`
}

// ContingencyCell is the within-predictor-level share of one outcome level.
type ContingencyCell struct {
	PredictorLevel Level   `json:"predictor_level"`
	OutcomeLevel   Level   `json:"outcome_level"`
	Count          int     `json:"count"`
	Share          float64 `json:"share"` // fraction of the predictor level's rows
}

// ContingencyTable is the binary-by-binary view, proportions straight from
// counts. Levels with zero rows are absent rather than zero-filled.
type ContingencyTable struct {
	Predictor core.VariableKey  `json:"predictor"`
	Outcome   core.VariableKey  `json:"outcome"`
	Cells     []ContingencyCell `json:"cells"`
}

// BinnedPoint is one exact-covariate-value group: the covariate value, the
// mean of the 0/1-recoded outcome within the group, and the group size.
type BinnedPoint struct {
	X      float64 `json:"x"`
	Rate   float64 `json:"rate"`
	Weight int     `json:"weight"`
}

// BinnedOutcome is the grouped view feeding the binned scatter and the
// logistic smoother.
type BinnedOutcome struct {
	Covariate core.VariableKey `json:"covariate"`
	Outcome   core.VariableKey `json:"outcome"`
	Points    []BinnedPoint    `json:"points"`
}

// CurvePoint is one evaluation of the fitted probability curve.
type CurvePoint struct {
	X     float64 `json:"x"`
	P     float64 `json:"p"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// LogisticCurve is the smoothed probability curve with its pointwise 95%
// confidence band, evaluated over an x-grid.
type LogisticCurve struct {
	Covariate  core.VariableKey `json:"covariate"`
	Outcome    core.VariableKey `json:"outcome"`
	Intercept  float64          `json:"intercept"`
	Slope      float64          `json:"slope"`
	Points     []CurvePoint     `json:"points"`
	Iterations int              `json:"iterations"`
}

// ============================================================================
// RUN METADATA (audit trail)
// ============================================================================

// RunManifest captures the complete specification and results of one
// report run.
type RunManifest struct {
	RunID       core.RunID       `json:"run_id"`
	DatasetPath string           `json:"dataset_path"`
	DatasetHash core.DatasetHash `json:"dataset_hash"`
	RowCount    int              `json:"row_count"`
	Seed        int64            `json:"seed"`

	Artifacts []string `json:"artifacts"` // files written, relative to the output dir
	RuntimeMs int64    `json:"runtime_ms"`

	CreatedAt core.Timestamp `json:"created_at"`
}

// NewRunManifest creates a manifest with determinism metadata filled in.
func NewRunManifest(datasetPath string, datasetHash core.DatasetHash, rowCount int, seed int64) *RunManifest {
	return &RunManifest{
		RunID:       core.RunID(core.NewID()),
		DatasetPath: datasetPath,
		DatasetHash: datasetHash,
		RowCount:    rowCount,
		Seed:        seed,
		Artifacts:   []string{},
		CreatedAt:   core.Now(),
	}
}

// ============================================================================
// CONSTRUCTORS
// ============================================================================

// NewContinuousSummary validates invariants before constructing the record.
func NewContinuousSummary(variable core.VariableKey, sampleSize int, mean, ciLower, ciUpper, stdDev, stdErr float64, q QuantileSet, resamples int, seed int64) (*ContinuousSummary, error) {
	if sampleSize <= 0 {
		return nil, fmt.Errorf("SampleSize must be > 0, got %d", sampleSize)
	}
	if ciLower > mean || mean > ciUpper {
		return nil, fmt.Errorf("bootstrap CI [%f, %f] does not bracket mean %f", ciLower, ciUpper, mean)
	}
	return &ContinuousSummary{
		Variable:   variable,
		SampleSize: sampleSize,
		Mean:       mean,
		CILower:    ciLower,
		CIUpper:    ciUpper,
		StdDev:     stdDev,
		StdErr:     stdErr,
		Quantiles:  q,
		Resamples:  resamples,
		Seed:       seed,
	}, nil
}
