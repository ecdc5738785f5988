package app

import (
	"context"
	"fmt"

	"github.com/arkilian/layoutbench/internal/analytics"
	"github.com/arkilian/layoutbench/internal/archive"
	"github.com/arkilian/layoutbench/internal/bench"
	"github.com/arkilian/layoutbench/internal/config"
	"github.com/arkilian/layoutbench/internal/metrics"
	"github.com/arkilian/layoutbench/internal/service"
	"github.com/arkilian/layoutbench/internal/store"
	"go.uber.org/zap"
)

// Components is the storage, metrics and service stack shared by the server
// and the one-shot sweep binary.
type Components struct {
	Store    *store.Store
	Metrics  *metrics.Recorder
	Archiver *archive.ReportArchiver
	Service  *service.Service
}

// NewComponents opens the store and report archive described by cfg and
// builds the service on top of them. cfg must already be resolved.
func NewComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.Open(ctx, store.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.DatabaseLocation(),
		Codec:           cfg.Document.Compression,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Logger:          logger.Named("store"),
	})
	if err != nil {
		return nil, err
	}

	archiver, err := archive.Open(ctx, archive.Options{
		Type:   cfg.Archive.Type,
		Path:   cfg.Archive.Path,
		Prefix: cfg.Archive.Prefix,
		S3: archive.S3Config{
			Bucket:       cfg.Archive.S3.Bucket,
			Region:       cfg.Archive.S3.Region,
			Endpoint:     cfg.Archive.S3.Endpoint,
			UsePathStyle: cfg.Archive.S3.UsePathStyle,
		},
	}, logger.Named("archive"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}

	recorder := metrics.NewRecorder(nil)
	engine := analytics.NewEngine(cfg.Benchmark.AnalyticsWorkers, logger.Named("analytics"))
	runner := bench.NewRunner(st, engine,
		bench.WithObserver(recorder),
		bench.WithLogger(logger.Named("bench")))

	opts := service.Options{
		Backend:       st,
		Runner:        runner,
		Observer:      recorder,
		Logger:        logger.Named("service"),
		BatchSize:     cfg.Generate.BatchSize,
		DefaultScales: cfg.Benchmark.Scales,
	}
	// A nil *ReportArchiver must not reach the interface field.
	if archiver != nil {
		opts.Archiver = archiver
	}

	return &Components{
		Store:    st,
		Metrics:  recorder,
		Archiver: archiver,
		Service:  service.New(opts),
	}, nil
}

// Close releases the store.
func (c *Components) Close() error {
	return c.Store.Close()
}

func bootstrapOptions(cfg *config.Config) service.BootstrapOptions {
	return service.BootstrapOptions{
		Records: cfg.Bootstrap.Records,
		Scales:  cfg.Benchmark.Scales,
	}
}
