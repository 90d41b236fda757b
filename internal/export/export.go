// Package export serializes query results to files. Writes go through a
// temporary file in the destination directory and are renamed into place, so
// a failed export never leaves a partial file at the destination.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Format identifies an export serialization format.
type Format string

const (
	// FormatJSON writes one JSON object per line (JSONL).
	FormatJSON Format = "json"
	// FormatCSV writes a header row followed by delimited rows.
	FormatCSV Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want json or csv)", s)
	}
}

// Write serializes rows to path in the given format.
func Write(columns []string, rows []map[string]any, format Format, path string) error {
	var serialize func(*os.File) error
	switch format {
	case FormatJSON:
		serialize = func(f *os.File) error { return writeJSON(f, columns, rows) }
	case FormatCSV:
		serialize = func(f *os.File) error { return writeCSV(f, columns, rows) }
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	return writeAtomic(path, serialize)
}

// writeAtomic writes through a temp file in the destination directory and
// renames it over path only after a successful flush.
func writeAtomic(path string, serialize func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fviewer-export-*")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := serialize(tmp); err != nil {
		cleanup()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize export: %w", err)
	}

	return nil
}

// writeJSON writes one JSON object per line, keys in column order.
func writeJSON(f *os.File, columns []string, rows []map[string]any) error {
	var buf bytes.Buffer
	for _, row := range rows {
		buf.Reset()
		buf.WriteByte('{')
		for i, col := range columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return err
			}
			val, err := json.Marshal(normalizeValue(row[col]))
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteString("}\n")
		if _, err := f.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(f *os.File, columns []string, rows []map[string]any) error {
	w := csv.NewWriter(f)

	if err := w.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = FormatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// normalizeValue makes driver values JSON-friendly.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// FormatValue renders a driver value as a CSV cell. NULL becomes the empty
// string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
