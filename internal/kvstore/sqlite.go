package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLite is the device local backend: a single file next to the binary.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed creating sqlite directory with error=%w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening sqlite with error=%w", err)
	}
	// one writer; matches the single writer model of a device session
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed migrating sqlite schema with error=%w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(c context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(c, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed sqlite get key=%s with error=%w", key, err)
	}
	return v, nil
}

func (s *SQLite) Set(c context.Context, key string, value string) error {
	_, err := s.db.ExecContext(
		c,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed sqlite set key=%s with error=%w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(c context.Context, key string) error {
	if _, err := s.db.ExecContext(c, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed sqlite delete key=%s with error=%w", key, err)
	}
	return nil
}
