package ports

import (
	"context"

	"flureport/domain/dataset"
)

// TableReaderPort loads the observation table from a serialized tabular
// file, selecting and validating the analysis columns.
type TableReaderPort interface {
	// ReadTable loads and validates the encounter table.
	ReadTable(ctx context.Context) (*dataset.Table, error)
}
