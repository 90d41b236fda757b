// Package commands implements the FViewer subcommands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kud1/file-viewer/internal/adapter"
	"github.com/kud1/file-viewer/internal/cli/config"
	"github.com/kud1/file-viewer/internal/history"
	"github.com/kud1/file-viewer/internal/session"
)

// getConfig retrieves the loaded config from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	return config.FromContext(cmd.Context())
}

// getLogger retrieves the logger from the command context.
func getLogger(cmd *cobra.Command) *slog.Logger {
	return config.GetLogger(cmd.Context())
}

// openSession constructs a session from the current configuration.
// The caller owns the session and must close it.
func openSession(cmd *cobra.Command) (*session.Session, error) {
	cfg := getConfig(cmd)

	s, err := session.New(cmd.Context(), session.Config{
		Engine: adapter.Config{Type: "duckdb", Path: cfg.Database},
		Watch:  cfg.Watch,
		Logger: getLogger(cmd),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return s, nil
}

// openHistory opens the query history store, or returns nil when history
// is disabled. A history failure is reported but never blocks querying.
func openHistory(cmd *cobra.Command) history.Store {
	cfg := getConfig(cmd)
	if cfg.NoHistory {
		return nil
	}

	path, err := cfg.ResolveHistoryPath()
	if err != nil {
		getLogger(cmd).Warn("query history disabled", "error", err)
		return nil
	}

	store := history.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		getLogger(cmd).Warn("query history disabled", "error", err)
		return nil
	}
	return store
}

// recordHistory logs one execution into the store, if any.
func recordHistory(store history.Store, logger *slog.Logger, entry *history.Entry) {
	if store == nil {
		return
	}
	if err := store.Record(entry); err != nil {
		logger.Warn("failed to record history", "error", err)
	}
}

// loadPaths registers each path (file or directory) into the session.
func loadPaths(cmd *cobra.Command, s *session.Session, paths []string) error {
	for _, p := range paths {
		lf, err := s.Files().Register(cmd.Context(), p, "")
		if err != nil {
			return err
		}
		getLogger(cmd).Debug("loaded", "path", p, "table", lf.Table, "rows", lf.RowCount)
	}
	return nil
}
