package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const kvTable = "kv_blobs"

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// SQLiteStore keeps blobs in a single SQLite table. It is used when the
// device keeps its state in an app database rather than loose files.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (or creates) the database at path and ensures the blob
// table exists. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writes.
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating %s: %w", kvTable, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}

	query, args, err := sqlBuilder.
		Select("value").
		From(kvTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("building get query: %w", err)
	}

	var value string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	query, args, err := sqlBuilder.
		Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building set query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	query, args, err := sqlBuilder.
		Delete(kvTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle. Further calls return ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
