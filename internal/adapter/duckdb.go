package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func() Adapter { return NewDuckDBAdapter() })
}

// DuckDBAdapter implements the Adapter interface for DuckDB.
type DuckDBAdapter struct {
	db     *sql.DB
	config Config
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter() *DuckDBAdapter {
	return &DuckDBAdapter{}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" || path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.db = db
	a.config = cfg

	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDBAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDBAdapter) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return nil
}

// Query executes a SQL statement that returns rows.
func (a *DuckDBAdapter) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}

	return &Rows{Rows: rows}, nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *DuckDBAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	// Parse schema.table if provided
	schema := "main"
	tableName := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema = parts[0]
		tableName = parts[1]
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", QuoteIdentifier(schema), QuoteIdentifier(tableName)) //nolint:gosec // identifiers are quoted
	var rowCount int64
	if err := a.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		rowCount = 0
	}

	return &Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// scanFunction returns the DuckDB table function used to read the format.
func scanFunction(format Format) (string, error) {
	switch format {
	case FormatCSV:
		return "read_csv_auto", nil
	case FormatParquet:
		return "read_parquet", nil
	case FormatJSON:
		return "read_json_auto", nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// LoadFile creates (or replaces) tableName from the given source files using
// DuckDB's scan functions with automatic schema detection. Passing multiple
// paths scans them as a single table; DuckDB rejects mismatched schemas.
func (a *DuckDBAdapter) LoadFile(ctx context.Context, tableName string, format Format, paths ...string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(paths) == 0 {
		return fmt.Errorf("no source files given")
	}

	fn, err := scanFunction(format)
	if err != nil {
		return err
	}

	quoted := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		quoted = append(quoted, QuoteLiteral(absPath))
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM %s([%s])",
		QuoteIdentifier(tableName),
		fn,
		strings.Join(quoted, ", "),
	)

	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to load %s: %w", format, err)
	}

	return nil
}

// DropTable removes a table from the catalog.
func (a *DuckDBAdapter) DropTable(ctx context.Context, tableName string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdentifier(tableName))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}

// TableExists reports whether a table with the given name exists in the
// main schema.
func (a *DuckDBAdapter) TableExists(ctx context.Context, tableName string) (bool, error) {
	if a.db == nil {
		return false, fmt.Errorf("database connection not established")
	}

	var count int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'main' AND table_name = ?
	`, tableName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}

	return count > 0, nil
}

// DialectName returns the dialect name for DuckDB.
func (a *DuckDBAdapter) DialectName() string {
	return "duckdb"
}

// Ensure DuckDBAdapter implements Adapter interface
var _ Adapter = (*DuckDBAdapter)(nil)
