package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kud1/file-viewer/internal/history"
	"github.com/kud1/file-viewer/internal/session"
)

// replState carries what dot-commands operate on between lines. The last
// successful result is retained so a failed query never clobbers it and
// .export always writes the result the user is looking at.
type replState struct {
	session    *session.Session
	store      history.Store
	format     string
	lastSQL    string
	lastResult *session.QueryResult
}

func runQueryREPL(cmd *cobra.Command, s *session.Session, opts *QueryOptions) error {
	ctx := cmd.Context()
	cfg := getConfig(cmd)

	format := opts.Format
	if format == "" {
		format = cfg.OutputFormat
	}

	state := &replState{
		session: s,
		store:   openHistory(cmd),
		format:  format,
	}
	if state.store != nil {
		defer func() { _ = state.store.Close() }()
	}

	// Readline keeps its own line history next to the query history db.
	historyFile := replHistoryFile(cfg.HistoryPath)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fviewer> ",
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(state),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "FViewer SQL REPL (%d file(s) loaded)\n", s.Files().Len())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("fviewer> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") && multiLineBuffer.Len() == 0 {
			if handled := handleDotCommand(ctx, cmd, state, line); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("fviewer> ")

		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeInREPL(ctx, cmd, state, query); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// executeInREPL runs one statement, records it, and renders on success.
func executeInREPL(ctx context.Context, cmd *cobra.Command, state *replState, query string) error {
	result, err := state.session.Execute(ctx, query)
	recordHistory(state.store, getLogger(cmd), newHistoryEntry(query, result, err))
	if err != nil {
		return err
	}

	state.lastSQL = query
	state.lastResult = result
	return renderResult(cmd.OutOrStdout(), result, state.format)
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, state *replState, line string) bool {
	w := cmd.OutOrStdout()
	ew := cmd.ErrOrStderr()

	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(w)
		return true

	case ".files", ".tables":
		if err := renderFiles(w, state.session.Files().List(), state.format); err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(ew, "Usage: .schema <table>")
			return true
		}
		if err := showFileSchema(w, state.session, parts[1]); err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
		}
		return true

	case ".load":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(ew, "Usage: .load <path> [name]")
			return true
		}
		name := ""
		if len(parts) > 2 {
			name = parts[2]
		}
		lf, err := state.session.Files().Register(ctx, parts[1], name)
		if err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprintf(w, "Loaded %s as %q (%d rows, %d columns)\n",
			lf.Path, lf.Table, lf.RowCount, len(lf.Columns))
		return true

	case ".drop":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(ew, "Usage: .drop <table>")
			return true
		}
		if err := state.session.Files().Unregister(ctx, parts[1]); err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprintf(w, "Dropped %q\n", parts[1])
		return true

	case ".refresh":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(ew, "Usage: .refresh <table>")
			return true
		}
		lf, err := state.session.Files().Refresh(ctx, parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprintf(w, "Reloaded %q (%d rows)\n", lf.Table, lf.RowCount)
		return true

	case ".export":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(ew, "Usage: .export [json|csv] <path>")
			return true
		}
		if state.lastResult == nil {
			_, _ = fmt.Fprintln(ew, "No result to export; run a query first")
			return true
		}
		var path, format string
		if len(parts) > 2 && (parts[1] == "json" || parts[1] == "csv") {
			format, path = parts[1], parts[2]
		} else {
			path = parts[1]
			format = exportFormatFor(path, state.format)
		}
		if err := exportResult(state.session, state.lastResult, format, path); err != nil {
			_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprintf(w, "Exported %d rows to %s\n", state.lastResult.RowCount, path)
		return true

	case ".history":
		printRecentHistory(w, ew, state.store)
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(ew, "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

// showFileSchema prints the column list for one loaded table.
func showFileSchema(w io.Writer, s *session.Session, name string) error {
	lf, ok := s.Files().Lookup(name)
	if !ok {
		return fmt.Errorf("no loaded file named %q", name)
	}

	_, _ = fmt.Fprintf(w, "Table: %s (%s, %d rows)\n", lf.Table, lf.Format, lf.RowCount)
	_, _ = fmt.Fprintf(w, "Source: %s\n", lf.Path)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, col := range lf.Columns {
		t.AppendRow(table.Row{col.Name, col.Type})
	}
	t.Render()
	return nil
}

func printRecentHistory(w, ew io.Writer, store history.Store) {
	if store == nil {
		_, _ = fmt.Fprintln(ew, "Query history is disabled")
		return
	}
	entries, err := store.Recent(20)
	if err != nil {
		_, _ = fmt.Fprintf(ew, "Error: %v\n", err)
		return
	}
	renderHistory(w, entries)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .files           List loaded files and their tables
  .schema <name>   Show columns for a loaded table
  .load <path>     Load a file or directory as a table
  .drop <name>     Unload a table
  .refresh <name>  Reload a table from its source file
  .export [json|csv] <path>
                   Export the last result
  .history         Show recent queries
  .clear           Clear the screen
  .quit / .exit    Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// replHistoryFile places the readline history beside the query history db,
// falling back to a dotfile in the home directory.
func replHistoryFile(historyPath string) string {
	if historyPath != "" {
		return filepath.Join(filepath.Dir(historyPath), "repl_history")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fviewer", "repl_history")
}

// newREPLCompleter creates a readline completer over loaded table names.
// Completion reads the registry live so tables loaded mid-session complete.
func newREPLCompleter(state *replState) *readline.PrefixCompleter {
	tableNames := func(string) []string {
		files := state.session.Files().List()
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Table)
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItemDynamic(tableNames),
		readline.PcItem(".help"),
		readline.PcItem(".files"),
		readline.PcItem(".schema", readline.PcItemDynamic(tableNames)),
		readline.PcItem(".load"),
		readline.PcItem(".drop", readline.PcItemDynamic(tableNames)),
		readline.PcItem(".refresh", readline.PcItemDynamic(tableNames)),
		readline.PcItem(".export"),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
