// Package service implements the inbound commands shared by the HTTP and gRPC
// front ends.
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/arkilian/layoutbench/internal/bench"
	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/internal/synth"
	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultListLimit is used by ListUsers when no positive limit is given.
const DefaultListLimit = 100

// Commands is the transport-independent command set.
type Commands interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Benchmark(ctx context.Context, rep types.Representation, count int) (bench.Trial, error)
	BenchmarkComplex(ctx context.Context, count int) (bench.ComplexTrial, error)
	RunFullSweep(ctx context.Context, scales []int) (*bench.SweepReport, error)
	CreateUser(ctx context.Context, rep types.Representation, req CreateUserRequest) (types.Record, error)
	ListUsers(ctx context.Context, rep types.Representation, limit int) ([]types.Record, error)
}

// Backend is the storage surface the service needs.
type Backend interface {
	synth.Inserter
	bench.Source
	Insert(ctx context.Context, rep types.Representation, rec types.Record) error
	Count(ctx context.Context, rep types.Representation) (int64, error)
	Clear(ctx context.Context, rep types.Representation) error
	Ping(ctx context.Context) error
}

// ReportSink stores finished sweep reports.
type ReportSink interface {
	Archive(ctx context.Context, report *bench.SweepReport) (string, error)
}

// GenerationObserver receives bulk generation outcomes.
type GenerationObserver interface {
	ObserveGenerated(variant types.Variant, rep types.Representation, inserted, failed int)
}

// GenerateRequest asks for count synthesized records.
type GenerateRequest struct {
	Variant        types.Variant        `json:"variant"`
	Representation types.Representation `json:"representation"`
	Count          int                  `json:"count"`
}

// GenerateResult reports a bulk generation.
type GenerateResult struct {
	Variant        types.Variant        `json:"variant"`
	Representation types.Representation `json:"representation"`
	Requested      int                  `json:"requested"`
	Inserted       int                  `json:"inserted"`
	Failed         int                  `json:"failed"`
	FirstError     string               `json:"first_error,omitempty"`
	Fingerprint    string               `json:"fingerprint"`
	DurationMS     float64              `json:"duration_ms"`
}

// CreateUserRequest is the body of a single user insert.
type CreateUserRequest struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Age         int               `json:"age"`
	Bio         string            `json:"bio"`
	AvatarURL   *string           `json:"avatar_url"`
	Preferences types.Preferences `json:"preferences"`
	SocialLinks []string          `json:"social_links"`
}

// Options configures a Service.
type Options struct {
	Backend     Backend
	Runner      *bench.Runner
	Synthesizer *synth.Synthesizer
	// Archiver and Observer are optional.
	Archiver      ReportSink
	Observer      GenerationObserver
	Logger        *zap.Logger
	BatchSize     int
	DefaultScales []int
}

// Service implements Commands on top of a storage backend.
type Service struct {
	backend   Backend
	runner    *bench.Runner
	populator *synth.Populator
	archiver  ReportSink
	observer  GenerationObserver
	logger    *zap.Logger
	batchSize int
	scales    []int
}

var _ Commands = (*Service)(nil)

// New creates a service.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := opts.Runner
	if runner == nil {
		runner = bench.NewRunner(opts.Backend, nil, bench.WithLogger(logger))
	}
	scales := opts.DefaultScales
	if len(scales) == 0 {
		scales = bench.DefaultScales
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = synth.DefaultBatchSize
	}
	return &Service{
		backend:   opts.Backend,
		runner:    runner,
		populator: synth.NewPopulator(opts.Synthesizer, opts.Backend, logger),
		archiver:  opts.Archiver,
		observer:  opts.Observer,
		logger:    logger,
		batchSize: batchSize,
		scales:    scales,
	}
}

// Generate inserts req.Count synthesized records, best-effort. Variant and
// representation aliases are normalized before anything is written.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	result := GenerateResult{Variant: req.Variant, Representation: req.Representation, Requested: req.Count}
	if req.Count <= 0 {
		return result, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("count must be positive, got %d", req.Count))
	}
	variant, err := types.ParseVariant(string(req.Variant))
	if err != nil {
		return result, benchErrors.NewValidationError(benchErrors.CodeInvalidVariant, err.Error())
	}
	rep, err := parseRepresentation(req.Representation)
	if err != nil {
		return result, err
	}
	req.Variant, req.Representation = variant, rep
	result.Variant, result.Representation = variant, rep

	start := time.Now()
	res, err := s.populator.Populate(ctx, synth.PopulateRequest{
		Variant:        req.Variant,
		Representation: req.Representation,
		Count:          req.Count,
		BatchSize:      s.batchSize,
	})
	result.DurationMS = float64(time.Since(start)) / float64(time.Millisecond)
	result.Inserted = res.Inserted
	result.Failed = res.Failed
	result.Fingerprint = strconv.FormatUint(uint64(res.Fingerprint), 16)
	if res.FirstError != nil {
		result.FirstError = res.FirstError.Error()
	}
	if s.observer != nil {
		s.observer.ObserveGenerated(req.Variant, req.Representation, res.Inserted, res.Failed)
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// Benchmark runs one timed fetch.
func (s *Service) Benchmark(ctx context.Context, rep types.Representation, count int) (bench.Trial, error) {
	rep, err := parseRepresentation(rep)
	if err != nil {
		return bench.Trial{Representation: rep, CountRequested: count}, err
	}
	trial, err := s.runner.Benchmark(ctx, rep, count)
	if err != nil {
		s.logger.Warn("benchmark failed",
			zap.String("representation", string(rep)),
			zap.Int("count", count),
			zap.Error(err))
	}
	return trial, err
}

// BenchmarkComplex runs one timed fetch plus analytics transform.
func (s *Service) BenchmarkComplex(ctx context.Context, count int) (bench.ComplexTrial, error) {
	trial, err := s.runner.BenchmarkComplex(ctx, count)
	if err != nil {
		s.logger.Warn("complex benchmark failed", zap.Int("count", count), zap.Error(err))
	}
	return trial, err
}

// RunFullSweep runs the sweep over scales (the configured default when empty)
// and archives the report when an archiver is configured. Archive failures
// are logged and do not fail the sweep.
func (s *Service) RunFullSweep(ctx context.Context, scales []int) (*bench.SweepReport, error) {
	if len(scales) == 0 {
		scales = s.scales
	}
	report, err := s.runner.Run(ctx, scales)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, &report)
		if err != nil {
			s.logger.Warn("failed to archive sweep report", zap.String("run_id", report.RunID), zap.Error(err))
		} else {
			s.logger.Info("sweep report archived", zap.String("run_id", report.RunID), zap.String("key", key))
		}
	}
	return &report, nil
}

// CreateUser stores one user record built from req.
func (s *Service) CreateUser(ctx context.Context, rep types.Representation, req CreateUserRequest) (types.Record, error) {
	rep, err := parseRepresentation(rep)
	if err != nil {
		return types.Record{}, err
	}
	if req.Name == "" || req.Email == "" {
		return types.Record{}, benchErrors.NewValidationError(benchErrors.CodeInvalidRecord, "name and email are required")
	}
	if req.Age < 0 {
		return types.Record{}, benchErrors.NewValidationError(benchErrors.CodeInvalidRecord,
			fmt.Sprintf("age must not be negative, got %d", req.Age))
	}
	links := req.SocialLinks
	if links == nil {
		links = []string{}
	}

	rec := types.Record{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
		Profile: types.Profile{
			Bio:         req.Bio,
			AvatarURL:   req.AvatarURL,
			Preferences: req.Preferences,
			SocialLinks: links,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.backend.Insert(ctx, rep, rec); err != nil {
		s.logger.Warn("create user failed", zap.String("representation", string(rep)), zap.Error(err))
		return types.Record{}, err
	}
	return rec, nil
}

// ListUsers returns the newest users in rep. Rows that cannot be decoded are
// skipped and logged.
func (s *Service) ListUsers(ctx context.Context, rep types.Representation, limit int) ([]types.Record, error) {
	rep, err := parseRepresentation(rep)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		out     []types.Record
		skipped int
	)
	switch rep {
	case types.RepresentationFlat:
		rows, err := s.backend.FetchFlat(ctx, limit)
		if err != nil {
			return nil, err
		}
		out = make([]types.Record, 0, len(rows))
		for i := range rows {
			rec, err := rows[i].Decode()
			if err != nil {
				skipped++
				continue
			}
			out = append(out, rec)
		}
	case types.RepresentationDocument:
		rows, err := s.backend.FetchDocuments(ctx, limit)
		if err != nil {
			return nil, err
		}
		out = make([]types.Record, 0, len(rows))
		for i := range rows {
			rec, err := rows[i].Decode()
			if err != nil {
				skipped++
				continue
			}
			out = append(out, rec)
		}
	default:
		return nil, benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation,
			fmt.Sprintf("unknown representation %q", rep))
	}

	if skipped > 0 {
		s.logger.Warn("skipped undecodable rows", zap.String("representation", string(rep)), zap.Int("skipped", skipped))
	}
	return out, nil
}

func parseRepresentation(rep types.Representation) (types.Representation, error) {
	parsed, err := types.ParseRepresentation(string(rep))
	if err != nil {
		return rep, benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation, err.Error())
	}
	return parsed, nil
}

// Health checks the backend.
func (s *Service) Health(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
