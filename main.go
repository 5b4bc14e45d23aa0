package main

import (
	"context"
	"log"

	"flureport/adapters/postgres"
	"flureport/adapters/rng"
	"flureport/adapters/tabular"
	"flureport/internal/config"
	"flureport/internal/pipeline"
	"flureport/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initArchive connects the optional Postgres summary archive. An empty URL
// disables archival entirely.
func initArchive(ctx context.Context, appConfig *config.Config) (ports.SummaryArchivePort, *sqlx.DB, error) {
	if appConfig.Archive.DatabaseURL == "" {
		return nil, nil, nil
	}

	db, err := sqlx.Connect("postgres", appConfig.Archive.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewSummaryRepository(db), db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	archive, db, err := initArchive(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize archive: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	p := pipeline.New(
		tabular.NewReader(appConfig.Data.Path),
		rng.New(),
		archive,
		appConfig.Report,
		appConfig.Data.Path,
	)

	result, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("Report run failed: %v", err)
	}

	log.Printf("Report written to %s (run %s)", appConfig.Report.OutDir, result.Manifest.RunID)
}
