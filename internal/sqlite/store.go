// Package sqlite backs the series, progress, and user stores with an embedded
// SQLite database for single-binary deployments. Timestamps are stored as unix
// nanoseconds so ordering comparisons stay exact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS series (
	id            TEXT PRIMARY KEY,
	external_id   TEXT NOT NULL,
	source        TEXT NOT NULL,
	media_type    TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	overview      TEXT NOT NULL DEFAULT '',
	poster_url    TEXT NOT NULL DEFAULT '',
	backdrop_url  TEXT NOT NULL DEFAULT '',
	total_seasons INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	UNIQUE (source, external_id)
);

CREATE TABLE IF NOT EXISTS episode_progress (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	series_id      TEXT NOT NULL REFERENCES series(id),
	season_number  INTEGER NOT NULL,
	episode_number INTEGER NOT NULL,
	status         TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	UNIQUE (user_id, series_id, season_number, episode_number)
);

CREATE INDEX IF NOT EXISTS idx_progress_recent
	ON episode_progress (user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// DB wraps the shared embedded database handle.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY churn under concurrent upserts.
	db.SetMaxOpenConns(1)

	var mode string
	if err := db.QueryRowContext(ctx, `PRAGMA journal_mode=WAL`).Scan(&mode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies the handle is still usable; backs the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
