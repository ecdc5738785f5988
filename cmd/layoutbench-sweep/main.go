// Package main implements layoutbench-sweep, a one-shot command that seeds
// both layouts and prints a benchmark sweep as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arkilian/layoutbench/internal/app"
	"github.com/arkilian/layoutbench/internal/config"
	"github.com/arkilian/layoutbench/internal/logging"
	"github.com/arkilian/layoutbench/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile  string
		dataDir     string
		dbDriver    string
		dbDSN       string
		compression string
		scales      string
		records     int
		skipSeed    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&dbDriver, "db-driver", "", "Database driver: sqlite3 or postgres")
	flag.StringVar(&dbDSN, "db-dsn", "", "SQLite file path or Postgres connection URL")
	flag.StringVar(&compression, "compression", "", "Document compression: none, snappy or zstd")
	flag.StringVar(&scales, "scales", "", "Comma separated sweep scales (default from config)")
	flag.IntVar(&records, "records", 0, "Records seeded into each layout (default: largest scale)")
	flag.BoolVar(&skipSeed, "skip-seed", false, "Keep existing data and only run the sweep")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		if cfg.Database.Driver == "postgres" {
			cfg.Database.DSN = dbDSN
		} else {
			cfg.Database.Path = dbDSN
		}
	}
	if compression != "" {
		cfg.Document.Compression = compression
	}
	if scales != "" {
		parsed, err := config.ParseScales(scales)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -scales: %v\n", err)
			os.Exit(2)
		}
		cfg.Benchmark.Scales = parsed
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the JSON lines.
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, records, skipSeed); err != nil {
		logger.Error("sweep failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, records int, skipSeed bool) error {
	components, err := app.NewComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if records <= 0 {
		records = cfg.Benchmark.Scales[len(cfg.Benchmark.Scales)-1]
	}

	report, err := components.Service.Bootstrap(ctx, service.BootstrapOptions{
		Records:  records,
		Scales:   cfg.Benchmark.Scales,
		SkipSeed: skipSeed,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, entry := range report.Entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	logger.Info("sweep complete",
		zap.String("run_id", report.RunID),
		zap.Int("entries", len(report.Entries)),
		zap.Int("failures", report.Failures()),
		zap.Float64("duration_ms", report.DurationMS))
	return nil
}
