package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`

// SQLiteBlob is a Blob implementation backed by a local SQLite database.
// It serves as the durable large-object tier: higher latency than the
// KV store but without its value-size pressure.
type SQLiteBlob struct {
	db *sql.DB
}

// NewSQLiteBlob opens (creating if needed) a blob store at the given
// database path. Use ":memory:" for an ephemeral store.
func NewSQLiteBlob(path string) (*SQLiteBlob, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	// The sqlite driver is single-writer; serialize access through one
	// connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init sqlite schema: %w", err)
	}

	return &SQLiteBlob{db: db}, nil
}

// Get retrieves an object. Returns (nil, false, nil) on miss.
func (s *SQLiteBlob) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set stores an object, overwriting any existing one.
func (s *SQLiteBlob) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes an object. Idempotent.
func (s *SQLiteBlob) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Scan iterates over all keys by cursor; there is no native prefix
// query on this tier, so callers filter inside fn.
func (s *SQLiteBlob) Scan(ctx context.Context, fn func(key string) bool) error {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM blobs`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !fn(key) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteBlob) Close() error {
	return s.db.Close()
}

// Ensure SQLiteBlob implements Blob
var _ Blob = (*SQLiteBlob)(nil)
