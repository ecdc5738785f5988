package service

import (
	"context"

	"github.com/arkilian/layoutbench/internal/bench"
	"github.com/arkilian/layoutbench/pkg/types"
	"go.uber.org/zap"
)

// BootstrapOptions configures the seed-and-sweep startup hook.
type BootstrapOptions struct {
	// Records is the number of records seeded into each layout.
	Records int
	// Scales overrides the default sweep scales.
	Scales []int
	// SkipSeed keeps existing data and only runs the sweep.
	SkipSeed bool
}

// Bootstrap clears both layouts, seeds Records simple flat records and Records
// complex document records, then runs a full sweep. Seeding is best-effort:
// failed batches are logged and the sweep still runs over whatever was stored.
func (s *Service) Bootstrap(ctx context.Context, opts BootstrapOptions) (*bench.SweepReport, error) {
	if !opts.SkipSeed {
		if err := s.seed(ctx, opts.Records); err != nil {
			return nil, err
		}
	}
	return s.RunFullSweep(ctx, opts.Scales)
}

func (s *Service) seed(ctx context.Context, records int) error {
	for _, rep := range []types.Representation{types.RepresentationFlat, types.RepresentationDocument} {
		if err := s.backend.Clear(ctx, rep); err != nil {
			return err
		}
	}

	plan := []GenerateRequest{
		{Variant: types.VariantSimple, Representation: types.RepresentationFlat, Count: records},
		{Variant: types.VariantComplex, Representation: types.RepresentationDocument, Count: records},
	}
	for _, req := range plan {
		s.logger.Info("seeding",
			zap.String("variant", string(req.Variant)),
			zap.String("representation", string(req.Representation)),
			zap.Int("records", req.Count))

		res, err := s.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.logger.Warn("seeding failed", zap.String("representation", string(req.Representation)), zap.Error(err))
			continue
		}
		if res.Failed > 0 {
			s.logger.Warn("seeding incomplete",
				zap.String("representation", string(req.Representation)),
				zap.Int("inserted", res.Inserted),
				zap.Int("failed", res.Failed))
		}
	}
	return nil
}

// DefaultBootstrapRecords matches the largest default scale.
var DefaultBootstrapRecords = bench.DefaultScales[len(bench.DefaultScales)-1]
