// Package adapter provides database adapter interfaces and implementations
// for FViewer's embedded analytical engine.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Format identifies a supported source file format.
type Format string

const (
	// FormatCSV is comma-separated values.
	FormatCSV Format = "csv"
	// FormatParquet is Apache Parquet.
	FormatParquet Format = "parquet"
	// FormatJSON is a JSON array of objects or newline-delimited JSON.
	FormatJSON Format = "json"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb")
	Type string

	// Path is the file path for file-based databases.
	// Use ":memory:" for an in-memory database.
	Path string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column in a database table.
type Column struct {
	// Name is the column name
	Name string

	// Type is the data type of the column
	Type string

	// Nullable indicates whether the column allows NULL values
	Nullable bool

	// Position is the ordinal position of the column in the table
	Position int
}

// Metadata holds metadata about a database table.
type Metadata struct {
	// Schema is the schema containing the table
	Schema string

	// Name is the table name
	Name string

	// Columns contains metadata for each column
	Columns []Column

	// RowCount is the number of rows in the table
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to the engine, registering source files
// as tables, executing SQL, and retrieving catalog metadata.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadFile creates (or replaces) tableName from one or more source files
	// of the given format with inferred schema. Multiple paths are scanned as
	// a single table; all files must share one schema.
	LoadFile(ctx context.Context, tableName string, format Format, paths ...string) error

	// DropTable removes a table from the catalog. Dropping a table that does
	// not exist is not an error.
	DropTable(ctx context.Context, tableName string) error

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// DialectName returns the SQL dialect name for this adapter (e.g., "duckdb").
	DialectName() string
}

// QuoteIdentifier quotes a SQL identifier for safe interpolation into
// statements, doubling any embedded quote characters.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal (e.g., a file path) for safe
// interpolation into statements.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func() Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a new adapter instance based on config type.
// An empty type defaults to "duckdb".
func New(cfg Config) (Adapter, error) {
	name := cfg.Type
	if name == "" {
		name = "duckdb"
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: name, Available: List()}
	}
	return factory(), nil
}

// List returns all registered adapter names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %v)", e.Type, e.Available)
}
