package ports

import (
	"context"

	"flureport/domain/stats"
)

// SummaryArchivePort persists computed summary tables and the run manifest
// so past report runs remain queryable. Archival is optional; the pipeline
// runs to completion without an archive configured.
type SummaryArchivePort interface {
	// SaveRun stores the manifest for a completed run.
	SaveRun(ctx context.Context, manifest *stats.RunManifest) error

	// SaveContinuous stores one continuous summary record under a run.
	SaveContinuous(ctx context.Context, runID string, summary *stats.ContinuousSummary) error

	// SaveProportions stores the per-symptom proportion table under a run.
	SaveProportions(ctx context.Context, runID string, table *stats.ProportionTable) error
}
