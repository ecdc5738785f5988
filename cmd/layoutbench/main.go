// Package main implements the layoutbench server, which serves the generate,
// benchmark and sweep commands over HTTP and optionally gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arkilian/layoutbench/internal/app"
	"github.com/arkilian/layoutbench/internal/config"
	"github.com/arkilian/layoutbench/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flags holds command line overrides; empty values leave the config alone.
type flags struct {
	configFile string
	dataDir    string
	httpAddr   string
	grpcAddr   string
	dbDriver   string
	dbDSN      string
	bootstrap  bool
}

func main() {
	var (
		f           flags
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&f.dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&f.httpAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&f.grpcAddr, "grpc-addr", "", "gRPC listen address (enables gRPC)")
	flag.StringVar(&f.dbDriver, "db-driver", "", "Database driver: sqlite3 or postgres")
	flag.StringVar(&f.dbDSN, "db-dsn", "", "SQLite file path or Postgres connection URL")
	flag.BoolVar(&f.bootstrap, "bootstrap", false, "Seed both layouts and run a sweep after startup")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "layoutbench - flat vs document storage benchmark server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: layoutbench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  layoutbench --data-dir /data/layoutbench\n")
		fmt.Fprintf(os.Stderr, "  layoutbench --db-driver postgres --db-dsn postgres://bench@localhost/bench?sslmode=disable\n")
		fmt.Fprintf(os.Stderr, "  layoutbench --config /etc/layoutbench/config.yaml --bootstrap\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (a .env file is loaded when present):\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_DATA_DIR              Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_HTTP_ADDR             HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_DB_DRIVER             sqlite3 or postgres\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_DB_DSN                Postgres connection URL\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_DOCUMENT_COMPRESSION  none, snappy or zstd\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_SCALES                Comma separated sweep scales\n")
		fmt.Fprintf(os.Stderr, "  LAYOUTBENCH_ARCHIVE_TYPE          none, local or s3\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("layoutbench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Missing .env is fine
	_ = godotenv.Load()

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("layoutbench starting",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("data_dir", cfg.DataDir),
		zap.String("driver", cfg.Database.Driver),
		zap.String("compression", cfg.Document.Compression),
		zap.Ints("scales", cfg.Benchmark.Scales),
		zap.Bool("bootstrap", cfg.Bootstrap.Enabled))

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create application", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logger.Fatal("failed to start application", zap.Error(err))
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		logger.Warn("shutdown reported errors", zap.Error(err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		os.Exit(1)
	}
}

// loadConfig layers defaults or the config file, then environment, then flags.
func loadConfig(f flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if f.configFile != "" {
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.httpAddr != "" {
		cfg.HTTP.Addr = f.httpAddr
	}
	if f.grpcAddr != "" {
		cfg.GRPC.Addr = f.grpcAddr
		cfg.GRPC.Enabled = true
	}
	if f.dbDriver != "" {
		cfg.Database.Driver = f.dbDriver
	}
	if f.dbDSN != "" {
		if cfg.Database.Driver == "postgres" {
			cfg.Database.DSN = f.dbDSN
		} else {
			cfg.Database.Path = f.dbDSN
		}
	}
	if f.bootstrap {
		cfg.Bootstrap.Enabled = true
	}

	return cfg, nil
}
