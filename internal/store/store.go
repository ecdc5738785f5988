// Package store persists user records in the flat and the document layout.
//
// The flat layout keeps one column per attribute in users_column. The document
// layout serializes the whole record into the data column of users_json,
// optionally compressed. Both tables are read newest first.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/pkg/types"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	tableFlat     = "users_column"
	tableDocument = "users_json"
)

// Options configures a Store.
type Options struct {
	Driver string
	// DSN is a file path for sqlite3 or a connection URL for postgres.
	DSN             string
	Codec           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          *zap.Logger
}

// Store is the storage backend for both layouts.
type Store struct {
	db      *sql.DB
	dialect dialect
	codec   Codec
	logger  *zap.Logger

	insertFlatSQL     string
	insertDocumentSQL string
	fetchFlatSQL      string
	fetchDocumentSQL  string
}

// Open connects to the database and creates the tables if needed.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "invalid driver", err)
	}
	codec, err := NewCodec(opts.Codec)
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "invalid codec", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(d.driver, d.dsn(opts.DSN))
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "failed to open database", err)
	}

	if d.driver == DriverSQLite {
		// Single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "database unreachable", err)
	}

	s := &Store{
		db:      db,
		dialect: d,
		codec:   codec,
		logger:  logger,
		insertFlatSQL: d.rebind(`INSERT INTO users_column
			(id, name, email, age, bio, avatar_url, preferences, social_links, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		insertDocumentSQL: d.rebind(`INSERT INTO users_json (id, data, codec, created_at) VALUES (?, ?, ?, ?)`),
		fetchFlatSQL: d.rebind(`SELECT id, name, email, age, bio, avatar_url, preferences, social_links, created_at
			FROM users_column ORDER BY created_at DESC, id DESC LIMIT ?`),
		fetchDocumentSQL: d.rebind(`SELECT id, data, codec, created_at
			FROM users_json ORDER BY created_at DESC, id DESC LIMIT ?`),
	}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened",
		zap.String("driver", d.driver),
		zap.String("codec", codec.Name()))
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "failed to initialize schema", err)
		}
	}
	return nil
}

// Codec returns the codec used for newly written documents.
func (s *Store) Codec() Codec {
	return s.codec
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeConnectFailed, "database unreachable", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes one record in the given layout.
func (s *Store) Insert(ctx context.Context, rep types.Representation, rec types.Record) error {
	return s.InsertBatch(ctx, rep, []types.Record{rec})
}

// InsertBatch writes records in one transaction. Either all records of the
// batch are stored or none are.
func (s *Store) InsertBatch(ctx context.Context, rep types.Representation, recs []types.Record) error {
	if len(recs) == 0 {
		return nil
	}

	var query string
	switch rep {
	case types.RepresentationFlat:
		query = s.insertFlatSQL
	case types.RepresentationDocument:
		query = s.insertDocumentSQL
	default:
		return benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation,
			fmt.Sprintf("unknown representation %q", rep))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for i := range recs {
		args, err := s.insertArgs(rep, &recs[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return benchErrors.NewStorageError(benchErrors.CodeWriteFailed,
				fmt.Sprintf("failed to insert %s record %s", rep, recs[i].ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to commit transaction", err)
	}
	return nil
}

func (s *Store) insertArgs(rep types.Representation, rec *types.Record) ([]interface{}, error) {
	if rep == types.RepresentationFlat {
		flat := rec.FlatAttributes()
		prefs, err := json.Marshal(flat.Preferences)
		if err != nil {
			return nil, benchErrors.Wrap(benchErrors.ErrCategoryValidation, benchErrors.CodeInvalidRecord, "failed to encode preferences", err)
		}
		links := flat.SocialLinks
		if links == nil {
			links = []string{}
		}
		linksJSON, err := json.Marshal(links)
		if err != nil {
			return nil, benchErrors.Wrap(benchErrors.ErrCategoryValidation, benchErrors.CodeInvalidRecord, "failed to encode social links", err)
		}
		var avatar sql.NullString
		if flat.AvatarURL != nil {
			avatar = sql.NullString{String: *flat.AvatarURL, Valid: true}
		}
		return []interface{}{
			flat.ID, flat.Name, flat.Email, flat.Age, flat.Bio, avatar,
			string(prefs), string(linksJSON), flat.CreatedAt.UnixNano(),
		}, nil
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, benchErrors.Wrap(benchErrors.ErrCategoryValidation, benchErrors.CodeInvalidRecord, "failed to encode document", err)
	}
	blob, err := s.codec.Encode(doc)
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to compress document", err)
	}
	return []interface{}{rec.ID, blob, s.codec.Name(), rec.CreatedAt.UnixNano()}, nil
}

// InsertRawDocument stores payload as a document without validating it. The
// payload is compressed with the store codec like any other document.
func (s *Store) InsertRawDocument(ctx context.Context, id string, createdAt time.Time, payload []byte) error {
	blob, err := s.codec.Encode(payload)
	if err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to compress document", err)
	}
	if _, err := s.db.ExecContext(ctx, s.insertDocumentSQL, id, blob, s.codec.Name(), createdAt.UnixNano()); err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to insert raw document", err)
	}
	return nil
}

// FetchFlat returns up to limit flat rows, newest first.
func (s *Store) FetchFlat(ctx context.Context, limit int) ([]FlatRow, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.fetchFlatSQL, limit)
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to query flat rows", err)
	}
	defer rows.Close()

	out := make([]FlatRow, 0, min(limit, 1024))
	for rows.Next() {
		var r FlatRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Age, &r.Bio, &r.AvatarURL,
			&r.Preferences, &r.SocialLinks, &r.CreatedAt); err != nil {
			return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to scan flat row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to iterate flat rows", err)
	}
	return out, nil
}

// FetchDocuments returns up to limit document rows, newest first.
func (s *Store) FetchDocuments(ctx context.Context, limit int) ([]DocumentRow, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.fetchDocumentSQL, limit)
	if err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to query documents", err)
	}
	defer rows.Close()

	out := make([]DocumentRow, 0, min(limit, 1024))
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.ID, &r.Data, &r.Codec, &r.CreatedAt); err != nil {
			return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to scan document", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to iterate documents", err)
	}
	return out, nil
}

// Count returns the number of stored records in one layout.
func (s *Store) Count(ctx context.Context, rep types.Representation) (int64, error) {
	table, err := tableFor(rep)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, benchErrors.NewStorageError(benchErrors.CodeReadFailed, "failed to count "+table, err)
	}
	return n, nil
}

// Clear deletes every record in one layout.
func (s *Store) Clear(ctx context.Context, rep types.Representation) error {
	table, err := tableFor(rep)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeWriteFailed, "failed to clear "+table, err)
	}
	s.logger.Info("table cleared", zap.String("table", table))
	return nil
}

func tableFor(rep types.Representation) (string, error) {
	switch rep {
	case types.RepresentationFlat:
		return tableFlat, nil
	case types.RepresentationDocument:
		return tableDocument, nil
	default:
		return "", benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation,
			fmt.Sprintf("unknown representation %q", rep))
	}
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("limit must be positive, got %d", limit))
	}
	return nil
}
