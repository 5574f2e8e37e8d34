// Package state persists the process-wide notification bookkeeping in a
// local SQLite database. The store is a flat key-value table with typed
// accessors, mirroring the preferences model the service replaced. Writes
// are serialized through a single mutex (single-writer discipline) because
// the scheduler task and a user-initiated "check now" may run concurrently.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"umbrella/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sent_notifications (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id TEXT NOT NULL,
	title    TEXT NOT NULL,
	body     TEXT NOT NULL,
	sent_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sent_notifications_sent_at ON sent_notifications(sent_at);
`

// Compile-time assertion that Store implements types.StateStore.
var _ types.StateStore = (*Store)(nil)

// Store is the SQLite-backed key-value store.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) the state database at path and applies
// the schema. Use ":memory:" for throwaway stores in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY between the scheduler and
	// the admin API.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for sibling packages that share the file (the
// notification history recorder).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) getRaw(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodeStateStore, fmt.Sprintf("reading key %q", key), err)
	}
	return value, true, nil
}

func (s *Store) setRaw(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeStateStore, fmt.Sprintf("writing key %q", key), err)
	}
	return nil
}

// GetBool returns the boolean stored under key, or def when absent.
func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := s.getRaw(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil // tolerate corrupt values, fall back to default
	}
	return v, nil
}

// SetBool stores a boolean under key.
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.setRaw(ctx, key, strconv.FormatBool(v))
}

// GetInt returns the int stored under key, or def when absent.
func (s *Store) GetInt(ctx context.Context, key string, def int) (int, error) {
	v, err := s.GetInt64(ctx, key, int64(def))
	return int(v), err
}

// SetInt stores an int under key.
func (s *Store) SetInt(ctx context.Context, key string, v int) error {
	return s.SetInt64(ctx, key, int64(v))
}

// GetInt64 returns the int64 stored under key, or def when absent.
func (s *Store) GetInt64(ctx context.Context, key string, def int64) (int64, error) {
	raw, ok, err := s.getRaw(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// SetInt64 stores an int64 under key.
func (s *Store) SetInt64(ctx context.Context, key string, v int64) error {
	return s.setRaw(ctx, key, strconv.FormatInt(v, 10))
}

// GetString returns the string stored under key, or def when absent.
func (s *Store) GetString(ctx context.Context, key string, def string) (string, error) {
	raw, ok, err := s.getRaw(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	return raw, nil
}

// SetString stores a string under key.
func (s *Store) SetString(ctx context.Context, key string, v string) error {
	return s.setRaw(ctx, key, v)
}
