// Package session provides the query and export façade over one embedded
// engine instance. A Session is explicitly constructed and passed around;
// there is no process-global engine. All loaded tables live in the session's
// engine and are discarded when it closes.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kud1/file-viewer/internal/adapter"
	"github.com/kud1/file-viewer/internal/export"
	"github.com/kud1/file-viewer/internal/registry"
)

// Config holds session configuration.
type Config struct {
	// Engine configures the embedded engine. Zero value means an in-memory
	// DuckDB instance.
	Engine adapter.Config

	// Watch enables source file change detection on the registry.
	Watch bool

	// Logger is the structured logger (nil discards).
	Logger *slog.Logger
}

// Session ties together one engine connection and the file registry bound
// to it.
type Session struct {
	db     adapter.Adapter
	files  *registry.Registry
	logger *slog.Logger
}

// New creates a session with a connected engine and an empty registry.
func New(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := adapter.New(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx, cfg.Engine); err != nil {
		return nil, err
	}

	files := registry.New(db, logger)
	if cfg.Watch {
		if err := files.StartWatcher(); err != nil {
			logger.Warn("file watching disabled", "error", err)
		}
	}

	logger.Debug("session opened", "engine", db.DialectName(), "path", cfg.Engine.Path)

	return &Session{db: db, files: files, logger: logger}, nil
}

// Files returns the session's file registry.
func (s *Session) Files() *registry.Registry {
	return s.files
}

// Close releases the registry watcher and the engine connection.
// All loaded tables are discarded with the engine.
func (s *Session) Close() error {
	_ = s.files.Close()
	return s.db.Close()
}

// Preview returns up to limit rows from a loaded table. The result's
// TotalRows carries the table's full row count for stat display.
func (s *Session) Preview(ctx context.Context, table string, limit int) (*QueryResult, error) {
	lf, ok := s.files.Lookup(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, table)
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", adapter.QuoteIdentifier(lf.Table), limit)
	result, err := s.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	result.TotalRows = lf.RowCount
	return result, nil
}

// Execute runs SQL against the engine and materializes the full result set.
// Engine error messages are passed through verbatim.
func (s *Session) Execute(ctx context.Context, sqlText string) (*QueryResult, error) {
	result, err := executeOn(ctx, s.db, sqlText)
	if err != nil {
		s.logger.Debug("query failed", "error", err)
		return nil, err
	}

	s.logger.Debug("query executed",
		"rows", result.RowCount, "columns", len(result.Columns), "elapsed", result.Elapsed)
	return result, nil
}

// Export serializes a result to the given path. Writes are atomic: a failure
// leaves no partial file at path. Loaded tables are never mutated by export.
func (s *Session) Export(result *QueryResult, format export.Format, path string) error {
	if result == nil {
		return fmt.Errorf("no result to export")
	}
	if err := export.Write(result.Columns, result.Rows, format, path); err != nil {
		return err
	}
	s.logger.Debug("result exported", "format", format, "path", path, "rows", result.RowCount)
	return nil
}
