package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"flureport/domain/stats"
	"flureport/ports"

	"github.com/jmoiron/sqlx"
)

// summaryRepository implements the SummaryArchivePort interface
type summaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary archive repository
func NewSummaryRepository(db *sqlx.DB) ports.SummaryArchivePort {
	return &summaryRepository{db: db}
}

// Schema creates the archive tables when absent.
const Schema = `
CREATE TABLE IF NOT EXISTS report_runs (
	run_id        TEXT PRIMARY KEY,
	dataset_path  TEXT NOT NULL,
	dataset_hash  TEXT NOT NULL,
	row_count     INTEGER NOT NULL,
	seed          BIGINT NOT NULL,
	artifacts     JSONB NOT NULL DEFAULT '[]',
	runtime_ms    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS continuous_summaries (
	run_id       TEXT NOT NULL REFERENCES report_runs(run_id),
	variable     TEXT NOT NULL,
	sample_size  INTEGER NOT NULL,
	mean         DOUBLE PRECISION NOT NULL,
	ci_lower     DOUBLE PRECISION NOT NULL,
	ci_upper     DOUBLE PRECISION NOT NULL,
	std_dev      DOUBLE PRECISION NOT NULL,
	std_err      DOUBLE PRECISION NOT NULL,
	quantiles    JSONB NOT NULL,
	resamples    INTEGER NOT NULL,
	seed         BIGINT NOT NULL,
	PRIMARY KEY (run_id, variable)
);

CREATE TABLE IF NOT EXISTS proportion_summaries (
	run_id       TEXT NOT NULL REFERENCES report_runs(run_id),
	variable     TEXT NOT NULL,
	ordinal      INTEGER NOT NULL,
	positives    INTEGER NOT NULL,
	sample_size  INTEGER NOT NULL,
	proportion   DOUBLE PRECISION NOT NULL,
	ci_lower     DOUBLE PRECISION NOT NULL,
	ci_upper     DOUBLE PRECISION NOT NULL,
	degenerate   BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, variable)
);
`

// EnsureSchema creates the archive tables when absent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

// SaveRun stores the manifest for a completed run
func (r *summaryRepository) SaveRun(ctx context.Context, manifest *stats.RunManifest) error {
	artifactsJSON, err := json.Marshal(manifest.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	query := `INSERT INTO report_runs (
		run_id, dataset_path, dataset_hash, row_count, seed, artifacts, runtime_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		manifest.RunID.String(), manifest.DatasetPath, manifest.DatasetHash.String(),
		manifest.RowCount, manifest.Seed, artifactsJSON, manifest.RuntimeMs,
		manifest.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run manifest: %w", err)
	}
	return nil
}

// SaveContinuous stores one continuous summary record under a run
func (r *summaryRepository) SaveContinuous(ctx context.Context, runID string, summary *stats.ContinuousSummary) error {
	quantilesJSON, err := json.Marshal(summary.Quantiles)
	if err != nil {
		return fmt.Errorf("failed to marshal quantiles: %w", err)
	}

	query := `INSERT INTO continuous_summaries (
		run_id, variable, sample_size, mean, ci_lower, ci_upper, std_dev, std_err, quantiles, resamples, seed
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		runID, summary.Variable.String(), summary.SampleSize,
		summary.Mean, summary.CILower, summary.CIUpper,
		summary.StdDev, summary.StdErr, quantilesJSON,
		summary.Resamples, summary.Seed,
	)
	if err != nil {
		return fmt.Errorf("failed to save continuous summary: %w", err)
	}
	return nil
}

// SaveProportions stores the per-symptom proportion table under a run
func (r *summaryRepository) SaveProportions(ctx context.Context, runID string, table *stats.ProportionTable) error {
	query := `INSERT INTO proportion_summaries (
		run_id, variable, ordinal, positives, sample_size, proportion, ci_lower, ci_upper, degenerate
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for ordinal, rec := range table.All() {
		_, err := r.db.ExecContext(ctx, query,
			runID, rec.Variable.String(), ordinal,
			rec.Positives, rec.SampleSize, rec.Proportion,
			rec.CILower, rec.CIUpper, rec.Degenerate,
		)
		if err != nil {
			return fmt.Errorf("failed to save proportion summary for %s: %w", rec.Variable, err)
		}
	}
	return nil
}
