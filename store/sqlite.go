/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists raw trivia API responses in SQLite so repeated
// games do not refetch the same categories.
package store

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

type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens (creating if needed) the cache database at path. Entries
// older than ttl are treated as missing; a ttl of zero keeps entries forever.
func NewSQLite(path string, ttl time.Duration) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	c := &SQLiteCache{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}

	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return c, nil
}

func (c *SQLiteCache) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT body, fetched_at FROM responses WHERE key = ?`, key)

	var body []byte
	var fetchedAt int64
	err := row.Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan response row: %w", err)
	}

	if c.expired(fetchedAt) {
		return nil, false, nil
	}

	return body, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key string, body []byte) error {
	query := `
		INSERT INTO responses (key, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`

	if _, err := c.db.ExecContext(ctx, query, key, body, c.now().UnixNano()); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}

// Prune deletes expired entries and reports how many were removed.
func (c *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	cutoff := c.now().Add(-c.ttl).UnixNano()
	res, err := c.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}
	return n, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) expired(fetchedAt int64) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(time.Unix(0, fetchedAt)) > c.ttl
}
