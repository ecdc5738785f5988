package synth

import (
	"context"
	"fmt"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/pkg/types"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of records written per transaction.
const DefaultBatchSize = 500

// Inserter persists a batch of records in one representation.
type Inserter interface {
	InsertBatch(ctx context.Context, rep types.Representation, recs []types.Record) error
}

// PopulateRequest describes a bulk generation.
type PopulateRequest struct {
	Variant        types.Variant
	Representation types.Representation
	// Start is the first 1-based index. Zero means 1.
	Start     int
	Count     int
	BatchSize int
}

// PopulateResult reports the outcome of a bulk generation.
type PopulateResult struct {
	Inserted    int
	Failed      int
	FirstError  error
	Fingerprint DatasetFingerprint
}

// Populator writes synthesized records to an Inserter.
type Populator struct {
	synth  *Synthesizer
	sink   Inserter
	logger *zap.Logger
}

// NewPopulator creates a populator. A nil synthesizer uses the default one.
func NewPopulator(s *Synthesizer, sink Inserter, logger *zap.Logger) *Populator {
	if s == nil {
		s = defaultSynthesizer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Populator{synth: s, sink: sink, logger: logger}
}

// Populate runs req against sink with the default synthesizer and no logging.
func Populate(ctx context.Context, sink Inserter, req PopulateRequest) (PopulateResult, error) {
	return NewPopulator(nil, sink, nil).Populate(ctx, req)
}

// Populate generates and inserts req.Count records. Population is best-effort:
// a failed batch is logged and counted as failed, and generation continues with
// the next batch. Write failures are never retried. Only context cancellation
// aborts the run, in which case the partial result is returned with the error.
func (p *Populator) Populate(ctx context.Context, req PopulateRequest) (PopulateResult, error) {
	var result PopulateResult

	if req.Count <= 0 {
		return result, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("count must be positive, got %d", req.Count))
	}
	if req.Start <= 0 {
		req.Start = 1
	}
	if req.BatchSize <= 0 {
		req.BatchSize = DefaultBatchSize
	}

	batch := make([]types.Record, 0, min(req.BatchSize, req.Count))
	end := req.Start + req.Count

	for first := req.Start; first < end; first += req.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		last := min(first+req.BatchSize, end)
		batch = batch[:0]
		for i := first; i < last; i++ {
			batch = append(batch, p.synth.Generate(i, req.Variant))
		}

		if err := p.sink.InsertBatch(ctx, req.Representation, batch); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed += len(batch)
			if result.FirstError == nil {
				result.FirstError = err
			}
			p.logger.Warn("batch insert failed",
				zap.String("variant", string(req.Variant)),
				zap.String("representation", string(req.Representation)),
				zap.Int("first_index", first),
				zap.Int("records", len(batch)),
				zap.Error(err))
			continue
		}

		result.Inserted += len(batch)
		for i := range batch {
			result.Fingerprint.Add(batch[i])
		}
	}

	p.logger.Info("population finished",
		zap.String("variant", string(req.Variant)),
		zap.String("representation", string(req.Representation)),
		zap.Int("inserted", result.Inserted),
		zap.Int("failed", result.Failed))

	return result, nil
}
