package session

import (
	"context"
	"time"

	"github.com/kud1/file-viewer/internal/adapter"
)

// DefaultPreviewLimit bounds preview row counts when the caller gives none.
const DefaultPreviewLimit = 100

// QueryResult holds a fully materialized result set. It is transient: each
// execution produces a fresh result and the previous one is simply dropped.
type QueryResult struct {
	// Columns are the result column names in order.
	Columns []string

	// Rows are the result rows; map values keyed by column name.
	Rows []map[string]any

	// RowCount is len(Rows).
	RowCount int

	// TotalRows is the underlying table's full row count for previews,
	// otherwise equal to RowCount.
	TotalRows int64

	// Elapsed is the query execution plus materialization time.
	Elapsed time.Duration
}

// Row returns row i's values in column order.
func (r *QueryResult) Row(i int) []any {
	out := make([]any, len(r.Columns))
	for j, col := range r.Columns {
		out[j] = r.Rows[i][col]
	}
	return out
}

// executeOn runs sqlText on db and collects every row.
func executeOn(ctx context.Context, db adapter.Adapter, sqlText string) (*QueryResult, error) {
	start := time.Now()

	rows, err := db.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:   cols,
		Rows:      results,
		RowCount:  len(results),
		TotalRows: int64(len(results)),
		Elapsed:   time.Since(start),
	}, nil
}
