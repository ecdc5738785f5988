package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	driver   string
	blobType string
	// numbered placeholders ($1, $2, ...) instead of '?'
	numbered bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "", DriverSQLite, "sqlite":
		return dialect{driver: DriverSQLite, blobType: "BLOB"}, nil
	case DriverPostgres, "postgresql":
		return dialect{driver: DriverPostgres, blobType: "BYTEA", numbered: true}, nil
	default:
		return dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// dsn turns the configured location into a driver connection string. SQLite
// paths get the same WAL and busy-timeout settings as the catalog databases.
func (d dialect) dsn(location string) string {
	if d.driver != DriverSQLite || strings.Contains(location, "?") {
		return location
	}
	return location + "?_journal_mode=WAL&_busy_timeout=5000"
}

// rebind rewrites '?' placeholders for drivers that need numbered ones.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users_column (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL,
			age          INTEGER NOT NULL,
			bio          TEXT NOT NULL,
			avatar_url   TEXT,
			preferences  TEXT NOT NULL,
			social_links TEXT NOT NULL,
			created_at   BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_column_created_at ON users_column(created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS users_json (
			id         TEXT PRIMARY KEY,
			data       ` + d.blobType + ` NOT NULL,
			codec      TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_json_created_at ON users_json(created_at DESC, id DESC)`,
	}
}
