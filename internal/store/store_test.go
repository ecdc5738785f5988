package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/internal/synth"
	"github.com/arkilian/layoutbench/pkg/types"
)

func openTestStore(t *testing.T, codec string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "bench.db"),
		Codec:  codec,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seed writes count records whose creation times increase with the index.
func seed(t *testing.T, s *Store, rep types.Representation, variant types.Variant, count int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]types.Record, 0, count)
	for i := 1; i <= count; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		id := fmt.Sprintf("rec-%04d", i)
		gen := synth.New(
			synth.WithClock(func() time.Time { return ts }),
			synth.WithIDGenerator(func() string { return id }),
		)
		recs = append(recs, gen.Generate(i, variant))
	}
	if err := s.InsertBatch(context.Background(), rep, recs); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
}

func TestFetchFlat_NewestFirst(t *testing.T) {
	s := openTestStore(t, CodecNone)
	seed(t, s, types.RepresentationFlat, types.VariantSimple, 20)

	rows, err := s.FetchFlat(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchFlat failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].CreatedAt <= rows[i].CreatedAt {
			t.Errorf("rows not strictly descending at %d: %d then %d", i, rows[i-1].CreatedAt, rows[i].CreatedAt)
		}
	}
	if rows[0].ID != "rec-0020" {
		t.Errorf("newest row = %s, want rec-0020", rows[0].ID)
	}

	rec, err := rows[0].Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.Name != "User 20" || rec.Profile.Preferences.Theme != "dark" || len(rec.Profile.SocialLinks) != 2 {
		t.Errorf("unexpected decoded record %+v", rec)
	}
}

func TestFetch_TiesBreakByID(t *testing.T) {
	s := openTestStore(t, CodecNone)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	recs := []types.Record{
		{ID: "b", Name: "b", CreatedAt: ts},
		{ID: "c", Name: "c", CreatedAt: ts},
		{ID: "a", Name: "a", CreatedAt: ts},
	}
	if err := s.InsertBatch(context.Background(), types.RepresentationDocument, recs); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	rows, err := s.FetchDocuments(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchDocuments failed: %v", err)
	}
	got := rows[0].ID + rows[1].ID + rows[2].ID
	if got != "cba" {
		t.Errorf("tie order = %s, want cba", got)
	}
}

func TestFetch_StoredBelowLimitReturnsStoredCount(t *testing.T) {
	s := openTestStore(t, CodecSnappy)
	seed(t, s, types.RepresentationFlat, types.VariantSimple, 7)
	seed(t, s, types.RepresentationDocument, types.VariantComplex, 7)

	flat, err := s.FetchFlat(context.Background(), 1000)
	if err != nil {
		t.Fatalf("FetchFlat failed: %v", err)
	}
	docs, err := s.FetchDocuments(context.Background(), 1000)
	if err != nil {
		t.Fatalf("FetchDocuments failed: %v", err)
	}
	if len(flat) != 7 || len(docs) != 7 {
		t.Errorf("got %d flat / %d docs, want 7/7", len(flat), len(docs))
	}
}

func TestFetch_RejectsNonPositiveLimit(t *testing.T) {
	s := openTestStore(t, CodecNone)

	_, err := s.FetchFlat(context.Background(), 0)
	if benchErrors.GetCategory(err) != benchErrors.ErrCategoryValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	_, err = s.FetchDocuments(context.Background(), -3)
	if benchErrors.GetCode(err) != benchErrors.CodeInvalidCount {
		t.Errorf("expected INVALID_COUNT, got %v", err)
	}
}

func TestDocumentRoundTrip_AllCodecs(t *testing.T) {
	for _, codec := range []string{CodecNone, CodecSnappy, CodecZstd} {
		t.Run(codec, func(t *testing.T) {
			s := openTestStore(t, codec)
			seed(t, s, types.RepresentationDocument, types.VariantComplex, 3)

			rows, err := s.FetchDocuments(context.Background(), 3)
			if err != nil {
				t.Fatalf("FetchDocuments failed: %v", err)
			}
			if rows[0].Codec != codec {
				t.Errorf("stored codec = %q, want %q", rows[0].Codec, codec)
			}
			rec, err := rows[2].Decode()
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if rec.Profile.Statistics == nil || rec.Profile.Statistics.FollowersCount != 520 {
				t.Errorf("unexpected statistics %+v", rec.Profile.Statistics)
			}
			if rec.Metadata == nil || len(rec.Metadata.Tags) != 4 {
				t.Errorf("unexpected metadata %+v", rec.Metadata)
			}
		})
	}
}

func TestFlatLayout_AvatarNullability(t *testing.T) {
	s := openTestStore(t, CodecNone)
	seed(t, s, types.RepresentationFlat, types.VariantSimple, 3)

	rows, err := s.FetchFlat(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchFlat failed: %v", err)
	}
	// rows[0] is index 3
	if !rows[0].AvatarURL.Valid || rows[0].AvatarURL.String != "https://example.com/avatar3.jpg" {
		t.Errorf("index 3 should have an avatar, got %+v", rows[0].AvatarURL)
	}
	if rows[1].AvatarURL.Valid {
		t.Error("index 2 should have no avatar")
	}
}

func TestMalformedDocument_IsParseError(t *testing.T) {
	s := openTestStore(t, CodecZstd)
	if err := s.InsertRawDocument(context.Background(), "broken", time.Now(), []byte(`{"id": "broken", "profile": `)); err != nil {
		t.Fatalf("InsertRawDocument failed: %v", err)
	}

	rows, err := s.FetchDocuments(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchDocuments failed: %v", err)
	}
	if _, err := rows[0].Payload(); err != nil {
		t.Fatalf("payload should decompress: %v", err)
	}
	_, err = rows[0].Decode()
	if !benchErrors.IsParse(err) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestCorruptBlob_IsParseError(t *testing.T) {
	row := DocumentRow{ID: "x", Data: []byte("definitely not snappy"), Codec: CodecSnappy}
	_, err := row.Payload()
	if benchErrors.GetCode(err) != benchErrors.CodeDecompressFailed {
		t.Errorf("expected DECOMPRESS_FAILED, got %v", err)
	}
}

func TestCountAndClear(t *testing.T) {
	s := openTestStore(t, CodecNone)
	ctx := context.Background()
	seed(t, s, types.RepresentationFlat, types.VariantSimple, 4)

	n, err := s.Count(ctx, types.RepresentationFlat)
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v; want 4", n, err)
	}
	if err := s.Clear(ctx, types.RepresentationFlat); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	n, err = s.Count(ctx, types.RepresentationFlat)
	if err != nil || n != 0 {
		t.Errorf("Count after clear = %d, %v; want 0", n, err)
	}
}

func TestInsertBatch_DuplicateIDIsStorageError(t *testing.T) {
	s := openTestStore(t, CodecNone)
	rec := types.Record{ID: "dup", Name: "dup", CreatedAt: time.Now()}

	err := s.InsertBatch(context.Background(), types.RepresentationFlat, []types.Record{rec, rec})
	if benchErrors.GetCode(err) != benchErrors.CodeWriteFailed {
		t.Fatalf("expected WRITE_FAILED, got %v", err)
	}
	n, _ := s.Count(context.Background(), types.RepresentationFlat)
	if n != 0 {
		t.Errorf("failed batch should roll back, found %d rows", n)
	}
}

func TestRebind(t *testing.T) {
	d, _ := dialectFor(DriverPostgres)
	got := d.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	if got != "INSERT INTO t (a, b) VALUES ($1, $2)" {
		t.Errorf("rebind = %q", got)
	}
	sq, _ := dialectFor(DriverSQLite)
	if sq.rebind("?") != "?" {
		t.Error("sqlite should keep '?' placeholders")
	}
	if _, err := dialectFor("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
