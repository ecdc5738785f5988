// Package bench times record retrieval across representations and scales.
//
// Every trial runs on the caller's goroutine, one after another, so no two
// trials ever compete for the backend while being timed.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/arkilian/layoutbench/internal/analytics"
	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/internal/store"
	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultScales is the sweep used when none is supplied.
var DefaultScales = []int{1000, 10000, 50000, 100000}

// Source is the read side of the storage backend.
type Source interface {
	FetchFlat(ctx context.Context, limit int) ([]store.FlatRow, error)
	FetchDocuments(ctx context.Context, limit int) ([]store.DocumentRow, error)
}

// Observer receives trial outcomes, typically to export metrics.
type Observer interface {
	ObserveTrial(kind Kind, d time.Duration, records int, err error)
	ObserveDropped(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveTrial(Kind, time.Duration, int, error) {}
func (nopObserver) ObserveDropped(int)                          {}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver sets the trial observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner executes timed trials against a Source.
type Runner struct {
	source   Source
	engine   *analytics.Engine
	observer Observer
	logger   *zap.Logger
}

// NewRunner creates a runner. A nil engine uses a single-worker engine.
func NewRunner(source Source, engine *analytics.Engine, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		engine:   engine,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = analytics.NewEngine(1, r.logger)
	}
	return r
}

// ValidateScales checks that a sweep has at least one positive scale.
func ValidateScales(scales []int) error {
	if len(scales) == 0 {
		return benchErrors.NewValidationError(benchErrors.CodeInvalidScale, "at least one scale is required")
	}
	for _, s := range scales {
		if s <= 0 {
			return benchErrors.NewValidationError(benchErrors.CodeInvalidScale,
				fmt.Sprintf("scale must be positive, got %d", s)).WithDetails(map[string]interface{}{"scale": s})
		}
	}
	return nil
}

// Benchmark fetches up to count newest records in rep and decodes each one.
// The returned duration covers both steps.
func (r *Runner) Benchmark(ctx context.Context, rep types.Representation, count int) (Trial, error) {
	trial := Trial{Representation: rep, CountRequested: count}
	if count <= 0 {
		return trial, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("count must be positive, got %d", count))
	}

	start := time.Now()
	var err error
	switch rep {
	case types.RepresentationFlat:
		trial.RecordsReturned, trial.DecodeFailures, err = r.timeFlat(ctx, count)
	case types.RepresentationDocument:
		trial.RecordsReturned, trial.DecodeFailures, err = r.timeDocuments(ctx, count)
	default:
		return trial, benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation,
			fmt.Sprintf("unknown representation %q", rep))
	}
	trial.Duration = time.Since(start)
	trial.DurationMS = milliseconds(trial.Duration)

	r.observer.ObserveTrial(Kind(rep), trial.Duration, trial.RecordsReturned, err)
	if err != nil {
		return trial, err
	}
	return trial, nil
}

func (r *Runner) timeFlat(ctx context.Context, count int) (returned, failures int, err error) {
	rows, err := r.source.FetchFlat(ctx, count)
	if err != nil {
		return 0, 0, err
	}
	for i := range rows {
		if _, err := rows[i].Decode(); err != nil {
			failures++
		}
	}
	return len(rows), failures, nil
}

func (r *Runner) timeDocuments(ctx context.Context, count int) (returned, failures int, err error) {
	rows, err := r.source.FetchDocuments(ctx, count)
	if err != nil {
		return 0, 0, err
	}
	for i := range rows {
		if _, err := rows[i].Decode(); err != nil {
			failures++
		}
	}
	return len(rows), failures, nil
}

// BenchmarkComplex fetches up to count newest documents and runs the analytics
// transform over them. Documents that cannot be decompressed or parsed are
// dropped and reported in RecordsDropped.
func (r *Runner) BenchmarkComplex(ctx context.Context, count int) (ComplexTrial, error) {
	trial := ComplexTrial{CountRequested: count}
	if count <= 0 {
		return trial, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("count must be positive, got %d", count))
	}

	start := time.Now()
	err := r.timeComplex(ctx, count, &trial)
	trial.Duration = time.Since(start)
	trial.DurationMS = milliseconds(trial.Duration)

	r.observer.ObserveTrial(KindComplex, trial.Duration, trial.RecordsProcessed, err)
	if err != nil {
		return trial, err
	}
	if trial.RecordsDropped > 0 {
		r.observer.ObserveDropped(trial.RecordsDropped)
		r.logger.Warn("documents dropped during analytics",
			zap.Int("returned", trial.RecordsReturned),
			zap.Int("dropped", trial.RecordsDropped))
	}
	return trial, nil
}

func (r *Runner) timeComplex(ctx context.Context, count int, trial *ComplexTrial) error {
	rows, err := r.source.FetchDocuments(ctx, count)
	if err != nil {
		return err
	}
	trial.RecordsReturned = len(rows)

	payloads := make([][]byte, 0, len(rows))
	for i := range rows {
		payload, err := rows[i].Payload()
		if err != nil {
			trial.RecordsDropped++
			continue
		}
		payloads = append(payloads, payload)
	}

	res, err := r.engine.TransformBatch(ctx, payloads)
	if err != nil {
		return err
	}
	trial.RecordsProcessed = len(res.Documents)
	trial.RecordsDropped += res.Dropped
	return nil
}

// Run sweeps the scales in order. For each scale it times the flat layout,
// then the document layout, then the complex path. A failed trial is logged
// and recorded in its entry, and the sweep moves on. Only invalid scales and
// context cancellation end the sweep early.
func (r *Runner) Run(ctx context.Context, scales []int) (SweepReport, error) {
	report := SweepReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Scales:    append([]int(nil), scales...),
	}
	if err := ValidateScales(scales); err != nil {
		return report, err
	}

	r.logger.Info("sweep started", zap.String("run_id", report.RunID), zap.Ints("scales", scales))
	start := time.Now()

	for _, scale := range scales {
		for _, rep := range []types.Representation{types.RepresentationFlat, types.RepresentationDocument} {
			if err := ctx.Err(); err != nil {
				report.DurationMS = milliseconds(time.Since(start))
				return report, err
			}
			trial, err := r.Benchmark(ctx, rep, scale)
			entry := Entry{
				Scale:           scale,
				Kind:            Kind(rep),
				DurationMS:      trial.DurationMS,
				RecordsReturned: trial.RecordsReturned,
				DecodeFailures:  trial.DecodeFailures,
			}
			report.Entries = append(report.Entries, r.finish(entry, err))
		}

		if err := ctx.Err(); err != nil {
			report.DurationMS = milliseconds(time.Since(start))
			return report, err
		}
		trial, err := r.BenchmarkComplex(ctx, scale)
		entry := Entry{
			Scale:            scale,
			Kind:             KindComplex,
			DurationMS:       trial.DurationMS,
			RecordsReturned:  trial.RecordsReturned,
			RecordsProcessed: trial.RecordsProcessed,
			RecordsDropped:   trial.RecordsDropped,
		}
		report.Entries = append(report.Entries, r.finish(entry, err))
	}

	report.DurationMS = milliseconds(time.Since(start))
	r.logger.Info("sweep finished",
		zap.String("run_id", report.RunID),
		zap.Int("entries", len(report.Entries)),
		zap.Int("failures", report.Failures()),
		zap.Float64("duration_ms", report.DurationMS))
	return report, nil
}

func (r *Runner) finish(entry Entry, err error) Entry {
	if err != nil {
		entry.Error = err.Error()
		r.logger.Warn("trial failed",
			zap.Int("scale", entry.Scale),
			zap.String("representation", string(entry.Kind)),
			zap.Error(err))
		return entry
	}
	r.logger.Info("trial finished",
		zap.Int("scale", entry.Scale),
		zap.String("representation", string(entry.Kind)),
		zap.Float64("duration_ms", entry.DurationMS),
		zap.Int("records", entry.RecordsReturned))
	return entry
}
