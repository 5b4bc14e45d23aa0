package dataset

import (
	"fmt"

	"flureport/domain/core"
	"flureport/domain/stats"
)

// Column names the analysis reads from the encounter table.
const (
	ColBodyTemp        = "BodyTemp"
	ColNausea          = "Nausea"
	ColCoughYN         = "CoughYN"
	ColWeaknessYN      = "WeaknessYN"
	ColMyalgiaYN       = "MyalgiaYN"
	ColChillsSweats    = "ChillsSweats"
	ColSubjectiveFever = "SubjectiveFever"
)

// SymptomColumns are the binary symptom indicators in report order.
var SymptomColumns = []string{
	ColCoughYN,
	ColWeaknessYN,
	ColMyalgiaYN,
	ColChillsSweats,
	ColSubjectiveFever,
}

// Table is an immutable, in-memory observation table of patient encounters.
// One row per encounter; column order follows the input file. The loader
// guarantees the analysis columns are present, typed, and free of missing
// values, so accessors past construction cannot fail on cardinality.
type Table struct {
	columns []string
	numeric map[string][]float64
	binary  map[string][]stats.Level
	rows    int
}

// NewTable assembles a validated table. Every column must have exactly
// rows values; numeric and binary column sets must be disjoint.
func NewTable(columns []string, numeric map[string][]float64, binary map[string][]stats.Level, rows int) (*Table, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("table must have at least one row, got %d", rows)
	}
	for _, col := range columns {
		nv, isNum := numeric[col]
		bv, isBin := binary[col]
		switch {
		case isNum && isBin:
			return nil, fmt.Errorf("column %s declared both numeric and binary", col)
		case isNum && len(nv) != rows:
			return nil, fmt.Errorf("column %s has %d values, want %d", col, len(nv), rows)
		case isBin && len(bv) != rows:
			return nil, fmt.Errorf("column %s has %d values, want %d", col, len(bv), rows)
		case !isNum && !isBin:
			return nil, core.NewColumnMissingError(col)
		}
	}
	return &Table{columns: columns, numeric: numeric, binary: binary, rows: rows}, nil
}

// Rows returns the number of encounters.
func (t *Table) Rows() int { return t.rows }

// Columns returns column names in input order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, isNum := t.numeric[name]
	_, isBin := t.binary[name]
	return isNum || isBin
}

// Numeric returns the values of a continuous column.
func (t *Table) Numeric(name string) ([]float64, error) {
	values, ok := t.numeric[name]
	if !ok {
		if _, isBin := t.binary[name]; isBin {
			return nil, core.NewColumnTypeError(name, "numeric")
		}
		return nil, core.NewColumnMissingError(name)
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// Binary returns the Yes/No levels of a binary column.
func (t *Table) Binary(name string) ([]stats.Level, error) {
	values, ok := t.binary[name]
	if !ok {
		if _, isNum := t.numeric[name]; isNum {
			return nil, core.NewColumnTypeError(name, "binary")
		}
		return nil, core.NewColumnMissingError(name)
	}
	out := make([]stats.Level, len(values))
	copy(out, values)
	return out, nil
}

// Recode01 returns a binary column recoded Yes=1, No=0.
func (t *Table) Recode01(name string) ([]float64, error) {
	levels, err := t.Binary(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(levels))
	for i, lv := range levels {
		if lv == stats.LevelYes {
			out[i] = 1
		}
	}
	return out, nil
}

// Hash fingerprints the table contents for the run manifest.
func (t *Table) Hash() core.DatasetHash {
	return core.ComputeDatasetHash(t.columns, func(col string) []string {
		if values, ok := t.numeric[col]; ok {
			cells := make([]string, len(values))
			for i, v := range values {
				cells[i] = fmt.Sprintf("%g", v)
			}
			return cells
		}
		values := t.binary[col]
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = string(v)
		}
		return cells
	})
}
