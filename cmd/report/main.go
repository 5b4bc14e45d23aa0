package main

import (
	"context"
	"fmt"
	"os"

	"flureport/adapters/postgres"
	"flureport/adapters/rng"
	"flureport/adapters/tabular"
	"flureport/internal/config"
	"flureport/internal/pipeline"
	"flureport/ports"
	"flureport/ui"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flureport",
		Short: "Descriptive statistics and figures for the flu symptom dataset",
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var dataPath string
	var outDir string
	var seed int64
	var resamples int
	var fixedN int
	var serve bool
	var addr string
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis and write the report",
		Long: `Load the encounter table, compute the summary statistics, render the
figures, and assemble the HTML report.

Example: flureport run --data data/SympAct_cleaned.csv --out out --seed 12345 --serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.ReportConfig{
				OutDir:    outDir,
				Seed:      seed,
				Resamples: resamples,
				FixedN:    fixedN,
			}

			ctx := cmd.Context()

			archive, db, err := openArchive(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("archive setup failed: %w", err)
			}
			if db != nil {
				defer db.Close()
			}

			p := pipeline.New(tabular.NewReader(dataPath), rng.New(), archive, cfg, dataPath)
			result, err := p.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Report written to %s (run %s)\n", outDir, result.Manifest.RunID)

			if serve {
				server := ui.NewServer(outDir, result.Manifest, result.BodyTemp, result.Symptoms)
				return server.Run(addr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "data/processed_data/SympAct_cleaned.csv", "Path to the encounter table (.csv or .xlsx)")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory for the report and figures")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic bootstrap and jitter")
	cmd.Flags().IntVar(&resamples, "resamples", 1000, "Bootstrap resample count")
	cmd.Flags().IntVar(&fixedN, "fixed-n", 0, "Pin the Wald standard-error denominator (0 = per-variable n)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the report for preview after the run")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Preview server address")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("FLUREPORT_DATABASE_URL"), "Postgres URL for the optional summary archive")

	return cmd
}

func openArchive(ctx context.Context, databaseURL string) (ports.SummaryArchivePort, *sqlx.DB, error) {
	if databaseURL == "" {
		return nil, nil, nil
	}
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewSummaryRepository(db), db, nil
}
