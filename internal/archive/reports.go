package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/arkilian/layoutbench/internal/bench"
	"go.uber.org/zap"
)

// Store types accepted by Open.
const (
	TypeNone  = "none"
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Options selects and configures the report object store.
type Options struct {
	Type   string
	Path   string
	Prefix string
	S3     S3Config
}

// Open builds the archiver described by opts. TypeNone (or an empty type)
// returns nil, meaning reports are not archived.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*ReportArchiver, error) {
	var store ObjectStore
	switch opts.Type {
	case "", TypeNone:
		return nil, nil
	case TypeLocal:
		local, err := NewLocalStore(opts.Path)
		if err != nil {
			return nil, err
		}
		store = local
	case TypeS3:
		s3Store, err := NewS3Store(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		store = s3Store
	default:
		return nil, fmt.Errorf("archive: unknown store type %q", opts.Type)
	}

	if logger != nil {
		logger.Info("report archive initialized",
			zap.String("type", opts.Type),
			zap.String("prefix", opts.Prefix))
	}
	return NewReportArchiver(store, opts.Prefix), nil
}

// ReportArchiver writes sweep reports as JSON objects named
// <prefix>/<YYYYMMDD>/<run_id>.json.
type ReportArchiver struct {
	store  ObjectStore
	prefix string
}

// NewReportArchiver creates an archiver on top of store.
func NewReportArchiver(store ObjectStore, prefix string) *ReportArchiver {
	return &ReportArchiver{store: store, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for a report.
func (a *ReportArchiver) Key(report *bench.SweepReport) string {
	return path.Join(a.prefix, report.StartedAt.UTC().Format("20060102"), report.RunID+".json")
}

// Archive stores the report and returns its key.
func (a *ReportArchiver) Archive(ctx context.Context, report *bench.SweepReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("archive: failed to encode report: %w", err)
	}
	key := a.Key(report)
	if err := a.store.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Load reads back an archived report.
func (a *ReportArchiver) Load(ctx context.Context, key string) (*bench.SweepReport, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var report bench.SweepReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("archive: failed to decode report %s: %w", key, err)
	}
	return &report, nil
}

// List returns the keys of all archived reports.
func (a *ReportArchiver) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx, a.prefix)
}
