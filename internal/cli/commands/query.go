package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kud1/file-viewer/internal/history"
	"github.com/kud1/file-viewer/internal/session"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Load   []string
	Format string
	Input  string
	Out    string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against loaded data files",
		Long: `Load CSV, Parquet, or JSON files as tables and run SQL against them.

Each --load path becomes a queryable table named after the file. Directories
load every supported file they contain as a single table. Results print to
stdout in the chosen format, or export to disk with --out.

When invoked without a SQL argument on a terminal, enters interactive
REPL mode.`,
		Example: `  # Query a single file
  fviewer query "SELECT * FROM orders LIMIT 10" --load orders.csv

  # Join two files
  fviewer query "SELECT * FROM orders o JOIN users u ON o.user_id = u.id" \
    --load orders.parquet --load users.csv

  # Load a directory of daily files as one table
  fviewer query "SELECT count(*) FROM events" --load ./events/

  # Export results
  fviewer query "SELECT * FROM orders" --load orders.csv --out results.csv

  # Read SQL from a file or stdin
  fviewer query --load orders.csv --input report.sql
  cat report.sql | fviewer query --load orders.csv

  # Interactive mode
  fviewer query --load orders.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Load, "load", "l", nil, "File or directory to load as a table (repeatable)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Export results to this path instead of printing")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cfg := getConfig(cmd)
	format := opts.Format
	if format == "" {
		format = cfg.OutputFormat
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := loadPaths(cmd, s, opts.Load); err != nil {
		return err
	}

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, s, opts)
	}

	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return fmt.Errorf("no SQL to execute")
	}

	store := openHistory(cmd)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	result, err := s.Execute(cmd.Context(), sqlQuery)
	recordHistory(store, getLogger(cmd), newHistoryEntry(sqlQuery, result, err))
	if err != nil {
		return err
	}

	if opts.Out != "" {
		if err := exportResult(s, result, exportFormatFor(opts.Out, format), opts.Out); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", result.RowCount, opts.Out)
		return nil
	}

	return renderResult(cmd.OutOrStdout(), result, format)
}

// newHistoryEntry builds a history record for one execution.
func newHistoryEntry(sqlQuery string, result *session.QueryResult, execErr error) *history.Entry {
	e := &history.Entry{
		ID:         uuid.NewString(),
		ExecutedAt: time.Now(),
		SQL:        sqlQuery,
		Status:     history.StatusOK,
	}
	if execErr != nil {
		e.Status = history.StatusError
		e.Error = execErr.Error()
		return e
	}
	e.RowCount = result.RowCount
	e.Duration = result.Elapsed
	return e
}

// exportFormatFor picks an export format from the --out extension,
// falling back to the output format when the extension is ambiguous.
func exportFormatFor(path, format string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return "json"
	case ".csv":
		return "csv"
	}
	if format == "json" || format == "csv" {
		return format
	}
	return "csv"
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
