// Package cache stores analysis results in SQLite, keyed by a hash of the
// document text and the normalizer variant that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"filegroups/internal/logging"
	"filegroups/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
	content_hash TEXT PRIMARY KEY,
	variant      TEXT NOT NULL,
	file_type    TEXT NOT NULL,
	result_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a SQLite-backed result cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Key returns the cache key for text analyzed with variant.
func Key(text, variant string) string {
	h := sha256.New()
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Open creates or opens the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path, logger: logging.OrNop(logger)}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached result for key. The boolean is false on a miss.
// Rows that no longer decode are treated as misses and removed.
func (s *Store) Get(ctx context.Context, key string) (*model.ExtractionResult, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM results WHERE content_hash = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil || result.Validate() != nil {
		s.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
		if _, delErr := s.execWithRetry(ctx, `DELETE FROM results WHERE content_hash = ?`, key); delErr != nil {
			return nil, false, fmt.Errorf("cache evict: %w", delErr)
		}
		return nil, false, nil
	}
	return &result, true, nil
}

// Put stores result under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key, variant, fileType string, result *model.ExtractionResult) error {
	if result == nil {
		return errors.New("cache put: nil result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.execWithRetry(ctx,
		`INSERT INTO results (content_hash, variant, file_type, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		   variant = excluded.variant,
		   file_type = excluded.file_type,
		   result_json = excluded.result_json,
		   created_at = excluded.created_at`,
		key, variant, fileType, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Purge removes every entry and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry count, stored JSON size and the age range of entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}

	var (
		bytes          sql.NullInt64
		oldest, newest sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), SUM(LENGTH(result_json)), MIN(created_at), MAX(created_at) FROM results`,
	).Scan(&stats.Entries, &bytes, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	stats.Bytes = bytes.Int64
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(time.RFC3339Nano, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(time.RFC3339Nano, newest.String)
	}
	return stats, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// execWithRetry retries writes that hit a lock held by another process
// sharing the cache file, backing off exponentially.
func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isSQLiteBusy(err) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return nil, lastErr
}
