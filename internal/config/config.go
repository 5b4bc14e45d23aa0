package config

import (
	"os"
	"strconv"

	"flureport/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data    DataConfig
	Report  ReportConfig
	Archive ArchiveConfig
	Server  ServerConfig
}

// DataConfig holds input dataset settings
type DataConfig struct {
	// Path to the cleaned encounter table (.csv or .xlsx), resolved
	// relative to the working directory when not absolute.
	Path string
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	OutDir    string
	Seed      int64
	Resamples int
	// FixedN reproduces the published Wald intervals, which used the
	// overall dataset size as the standard-error denominator for every
	// symptom. Zero means each variable uses its own sample size.
	FixedN int
}

// ArchiveConfig holds optional Postgres archive settings
type ArchiveConfig struct {
	DatabaseURL string // empty disables archival
}

// ServerConfig holds report preview server settings
type ServerConfig struct {
	Addr    string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			Path: getEnvOrDefault("FLUREPORT_DATA", "data/processed_data/SympAct_cleaned.csv"),
		},
		Report: ReportConfig{
			OutDir:    getEnvOrDefault("FLUREPORT_OUT", "out"),
			Seed:      getEnvInt64OrDefault("FLUREPORT_SEED", 42),
			Resamples: getEnvIntOrDefault("FLUREPORT_RESAMPLES", 1000),
			FixedN:    getEnvIntOrDefault("FLUREPORT_FIXED_N", 0),
		},
		Archive: ArchiveConfig{
			DatabaseURL: os.Getenv("FLUREPORT_DATABASE_URL"),
		},
		Server: ServerConfig{
			Addr:    getEnvOrDefault("FLUREPORT_ADDR", ":8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.Path == "" {
		return errors.ConfigInvalid("data path is required")
	}
	if config.Report.OutDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Report.Resamples <= 0 {
		return errors.ConfigInvalid("bootstrap resample count must be positive")
	}
	if config.Report.FixedN < 0 {
		return errors.ConfigInvalid("fixed N cannot be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
