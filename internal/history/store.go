// Package history provides a SQLite-backed log of executed queries. The log
// lives beside the user's data (default ~/.fviewer/history.db) and is the
// only thing FViewer persists between runs; loaded tables never are.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// Status values for history entries.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one executed query.
type Entry struct {
	ID         string
	ExecutedAt time.Time
	SQL        string
	Status     string
	Error      string
	RowCount   int
	Duration   time.Duration
}

// Store records and retrieves query history.
type Store interface {
	Record(e *Entry) error
	Recent(limit int) ([]Entry, error)
	Prune(keep int) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite history store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database and runs migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts an entry, filling ID and ExecutedAt when unset.
func (s *SQLiteStore) Record(e *Entry) error {
	if s.db == nil {
		return fmt.Errorf("history database not opened")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO query_history (id, executed_at, sql_text, status, error, row_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ExecutedAt.UTC().Format(time.RFC3339Nano), e.SQL, e.Status, e.Error, e.RowCount, e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *SQLiteStore) Recent(limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, executed_at, sql_text, status, error, row_count, duration_ms
		FROM query_history
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var executedAt string
		var durationMS int64
		if err := rows.Scan(&e.ID, &executedAt, &e.SQL, &e.Status, &e.Error, &e.RowCount, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, executedAt); err == nil {
			e.ExecutedAt = ts
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Prune deletes all but the newest keep entries.
func (s *SQLiteStore) Prune(keep int) error {
	if s.db == nil {
		return fmt.Errorf("history database not opened")
	}
	if keep < 0 {
		keep = 0
	}

	_, err := s.db.Exec(`
		DELETE FROM query_history
		WHERE rowid NOT IN (
			SELECT rowid FROM query_history
			ORDER BY executed_at DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
