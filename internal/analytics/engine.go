package analytics

import (
	"context"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of transforming a batch of documents.
type BatchResult struct {
	// Documents holds the transformed survivors in input order.
	Documents [][]byte
	// Dropped counts documents that failed to parse.
	Dropped int
}

// Engine transforms batches of documents with a bounded worker pool. It keeps
// no state between calls.
type Engine struct {
	workers int
	logger  *zap.Logger
}

// NewEngine creates an engine with the given number of workers (minimum 1).
func NewEngine(workers int, logger *zap.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{workers: workers, logger: logger}
}

// Workers returns the worker pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// TransformBatch transforms every document. Documents that cannot be parsed
// are dropped and counted, never fatal. Only context cancellation and
// internal failures abort the batch.
func (e *Engine) TransformBatch(ctx context.Context, docs [][]byte) (BatchResult, error) {
	results := make([][]byte, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := Transform(docs[i])
			if err != nil {
				if benchErrors.IsParse(err) {
					e.logger.Debug("dropping malformed document", zap.Int("position", i), zap.Error(err))
					return nil
				}
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Documents: make([][]byte, 0, len(docs))}
	for _, doc := range results {
		if doc == nil {
			res.Dropped++
			continue
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}
