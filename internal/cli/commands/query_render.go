package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kud1/file-viewer/internal/export"
	"github.com/kud1/file-viewer/internal/registry"
	"github.com/kud1/file-viewer/internal/session"
)

func renderResult(w io.Writer, result *session.QueryResult, format string) error {
	switch format {
	case "json":
		return renderJSON(w, result.Rows)
	case "csv":
		return renderCSV(w, result.Columns, result.Rows)
	case "md", "markdown":
		return renderMarkdown(w, result.Columns, result.Rows)
	default:
		return renderTable(w, result)
	}
}

func renderTable(w io.Writer, result *session.QueryResult) error {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for i := range result.Rows {
		row := make(table.Row, len(result.Columns))
		for j, v := range result.Row(i) {
			row[j] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	if result.TotalRows > int64(result.RowCount) {
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", result.RowCount, result.TotalRows)
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", result.RowCount)
	}
	return nil
}

func renderJSON(w io.Writer, rows []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, cols []string, rows []map[string]any) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(row[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, rows []map[string]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(row[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// renderFiles prints the loaded-file catalog.
func renderFiles(w io.Writer, files []*registry.LoadedFile, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}

	if len(files) == 0 {
		_, _ = fmt.Fprintln(w, "No files loaded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Table", "Format", "Rows", "Columns", "Path"})

	for _, f := range files {
		name := f.DisplayName
		if f.Stale {
			name += " *"
		}
		t.AppendRow(table.Row{name, f.Table, f.Format, f.RowCount, len(f.Columns), f.Path})
	}
	t.Render()
	return nil
}

// exportResult writes a result to disk in the named format.
func exportResult(s *session.Session, result *session.QueryResult, formatName, path string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if err := s.Export(result, format, path); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	return nil
}
