package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kud1/file-viewer/internal/history"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [n]",
		Short: "Show recent queries",
		Long: `List recently executed queries with their status, row counts,
and timings. History is stored per user and survives across sessions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid entry count %q", args[0])
				}
				opts.Limit = n
			}
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of entries to show")

	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	store := openHistory(cmd)
	if store == nil {
		return fmt.Errorf("query history is disabled")
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	renderHistory(cmd.OutOrStdout(), entries)
	return nil
}

// newHistoryPruneCommand creates the prune subcommand.
func newHistoryPruneCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old history entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := openHistory(cmd)
			if store == nil {
				return fmt.Errorf("query history is disabled")
			}
			defer func() { _ = store.Close() }()

			if err := store.Prune(keep); err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned history to the %d most recent entries\n", keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 100, "Number of entries to keep")

	return cmd
}

func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No history")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Status", "Rows", "Duration", "SQL"})

	for _, e := range entries {
		status := e.Status
		if e.Status == history.StatusError && e.Error != "" {
			status = "error"
		}
		t.AppendRow(table.Row{
			e.ExecutedAt.Format("2006-01-02 15:04:05"),
			status,
			e.RowCount,
			e.Duration.Round(time.Millisecond),
			truncateSQL(e.SQL, 60),
		})
	}
	t.Render()
}

func truncateSQL(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
