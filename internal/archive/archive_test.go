package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arkilian/layoutbench/internal/bench"
)

func TestLocalStore_PutGetList(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "reports/a.json", []byte("one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "reports/nested/b.json", []byte("two")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Overwrite
	if err := store.Put(ctx, "reports/a.json", []byte("three")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "reports/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "three" {
		t.Errorf("content = %q, want three", data)
	}

	keys, err := store.List(ctx, "reports")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "reports/a.json" || keys[1] != "reports/nested/b.json" {
		t.Errorf("unexpected keys %v", keys)
	}

	if _, err := store.Get(ctx, "missing.json"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
	if keys, err := store.List(ctx, "nothing-here"); err != nil || len(keys) != 0 {
		t.Errorf("missing prefix should list empty, got %v, %v", keys, err)
	}
}

func TestReportArchiver_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(context.Background(), Options{Type: TypeLocal, Path: dir, Prefix: "/sweeps/"}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	report := &bench.SweepReport{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 8, 30, 23, 59, 0, 0, time.UTC),
		Scales:    []int{1000},
		Entries: []bench.Entry{
			{Scale: 1000, Kind: bench.KindFlat, RecordsReturned: 500, DurationMS: 1.5},
			{Scale: 1000, Kind: bench.KindComplex, RecordsReturned: 500, RecordsProcessed: 499, RecordsDropped: 1},
		},
	}

	key, err := a.Archive(context.Background(), report)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if key != "sweeps/20240830/run-1.json" {
		t.Errorf("key = %q", key)
	}

	loaded, err := a.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.RunID != "run-1" || len(loaded.Entries) != 2 || loaded.Entries[1].RecordsDropped != 1 {
		t.Errorf("unexpected report %+v", loaded)
	}

	keys, err := a.List(context.Background())
	if err != nil || len(keys) != 1 {
		t.Errorf("List = %v, %v", keys, err)
	}
}

func TestOpen_NoneAndUnknown(t *testing.T) {
	a, err := Open(context.Background(), Options{Type: TypeNone}, nil)
	if err != nil || a != nil {
		t.Errorf("none should return nil archiver, got %v, %v", a, err)
	}
	if _, err := Open(context.Background(), Options{Type: "ftp"}, nil); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := Open(context.Background(), Options{Type: TypeS3}, nil); err == nil {
		t.Error("expected error for s3 without bucket")
	}
}

func TestS3Store_RetryWithBackoff(t *testing.T) {
	s := &S3Store{maxRetries: 2, baseDelay: time.Millisecond}

	calls := 0
	err := s.retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("slow down")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("expected success on third attempt, got %v after %d calls", err, calls)
	}

	calls = 0
	err = s.retryWithBackoff(context.Background(), func() error {
		calls++
		return ErrObjectNotFound
	})
	if !errors.Is(err, ErrObjectNotFound) || calls != 1 {
		t.Errorf("not found should not be retried, got %v after %d calls", err, calls)
	}

	calls = 0
	err = s.retryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("always")
	})
	if err == nil || calls != 3 {
		t.Errorf("expected %d attempts, got %d", 3, calls)
	}
}
