// Package feedback provides a SQLite-backed store for user ratings of
// generated answers. Feedback is write-mostly operational data used to judge
// answer quality offline; it never influences retrieval or generation.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Entry is one recorded piece of feedback on a generated answer.
type Entry struct {
	// ID is the row identifier, assigned on insert.
	ID int64
	// Query is the user question the answer responded to.
	Query string
	// Answer is the generated answer being rated.
	Answer string
	// Rating is the user's score. The API accepts 1 (helpful) or 0 (not).
	Rating int
	// CreatedAt is when the feedback was persisted.
	CreatedAt time.Time
}

// Store persists and retrieves feedback entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record persists one feedback entry and returns its assigned ID.
	Record(ctx context.Context, query, answer string, rating int) (int64, error)
	// Recent returns the most recent n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default path for the feedback database.
// It resolves to ~/.docrag/feedback.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("feedback: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docrag")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("feedback: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "feedback.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("feedback: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS feedback (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    query      TEXT    NOT NULL,
    answer     TEXT    NOT NULL,
    rating     INTEGER NOT NULL CHECK(rating IN (0, 1)),
    created_at INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_feedback_created
    ON feedback (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("feedback: migrate: %w", err)
	}
	return nil
}

// Record persists one feedback entry and returns its assigned ID.
func (s *SQLiteStore) Record(ctx context.Context, query, answer string, rating int) (int64, error) {
	if rating != 0 && rating != 1 {
		return 0, fmt.Errorf("feedback: rating must be 0 or 1, got %d", rating)
	}
	const q = `INSERT INTO feedback (query, answer, rating, created_at) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, query, answer, rating, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("feedback: record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("feedback: record: %w", err)
	}
	return id, nil
}

// Recent returns the most recent n entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	const q = `SELECT id, query, answer, rating, created_at FROM feedback ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("feedback: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Query, &e.Answer, &e.Rating, &ts); err != nil {
			return nil, fmt.Errorf("feedback: scan: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feedback: rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
