// Package tui implements the full-screen terminal viewer. It wraps a
// session in a bubbletea program with a file list, a result pane, and a
// SQL editor.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kud1/file-viewer/internal/history"
	"github.com/kud1/file-viewer/internal/session"
)

// Config carries the viewer's collaborators. Session is required;
// History may be nil when history is disabled.
type Config struct {
	Session      *session.Session
	History      history.Store
	PreviewLimit int
	Logger       *slog.Logger
}

// Run starts the viewer and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Session == nil {
		return fmt.Errorf("tui: session is required")
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = session.DefaultPreviewLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	p := tea.NewProgram(newModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
