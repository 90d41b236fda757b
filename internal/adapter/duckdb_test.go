package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAdapter(t *testing.T) *DuckDBAdapter {
	t.Helper()
	ctx := context.Background()
	a := NewDuckDBAdapter()
	if err := a.Connect(ctx, Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to connect to in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDuckDBAdapter_ConnectInMemory(t *testing.T) {
	ctx := context.Background()
	a := NewDuckDBAdapter()

	if err := a.Connect(ctx, Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to connect to in-memory DuckDB: %v", err)
	}
	defer a.Close()
}

func TestDuckDBAdapter_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	if err := a.Exec(ctx, `CREATE TABLE users (id INTEGER, name VARCHAR)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if err := a.Exec(ctx, `INSERT INTO users VALUES (1, 'alice'), (2, 'bob')`); err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}

	rows, err := a.Query(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	defer rows.Close()

	expected := []struct {
		id   int
		name string
	}{
		{1, "alice"},
		{2, "bob"},
	}

	i := 0
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			t.Fatalf("failed to scan row: %v", err)
		}
		if i >= len(expected) {
			t.Fatalf("unexpected extra row: id=%d, name=%s", id, name)
		}
		if id != expected[i].id || name != expected[i].name {
			t.Errorf("row %d: got (%d, %s), want (%d, %s)", i, id, name, expected[i].id, expected[i].name)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("row iteration error: %v", err)
	}
	if i != len(expected) {
		t.Errorf("got %d rows, want %d", i, len(expected))
	}
}

func TestDuckDBAdapter_QueryError(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	if _, err := a.Query(ctx, `SELECT * FROM no_such_table`); err == nil {
		t.Fatal("expected error querying missing table")
	}
}

func TestDuckDBAdapter_LoadFileCSV(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	dir := t.TempDir()
	csvPath := writeFile(t, dir, "orders.csv", "id,amount\n1,10.5\n2,20.0\n3,9.99\n")

	if err := a.LoadFile(ctx, "orders", FormatCSV, csvPath); err != nil {
		t.Fatalf("failed to load CSV: %v", err)
	}

	meta, err := a.GetTableMetadata(ctx, "orders")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if meta.RowCount != 3 {
		t.Errorf("row count: got %d, want 3", meta.RowCount)
	}
	if len(meta.Columns) != 2 {
		t.Errorf("column count: got %d, want 2", len(meta.Columns))
	}
	if meta.Columns[0].Name != "id" || meta.Columns[1].Name != "amount" {
		t.Errorf("unexpected column names: %+v", meta.Columns)
	}
}

func TestDuckDBAdapter_LoadFileJSONL(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "events.jsonl",
		`{"event":"click","count":3}`+"\n"+`{"event":"view","count":7}`+"\n")

	if err := a.LoadFile(ctx, "events", FormatJSON, jsonPath); err != nil {
		t.Fatalf("failed to load JSONL: %v", err)
	}

	meta, err := a.GetTableMetadata(ctx, "events")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if meta.RowCount != 2 {
		t.Errorf("row count: got %d, want 2", meta.RowCount)
	}
}

func TestDuckDBAdapter_LoadFileParquet(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	// Generate a parquet fixture with the engine itself.
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "nums.parquet")
	copySQL := "COPY (SELECT range AS n FROM range(5)) TO " + QuoteLiteral(parquetPath) + " (FORMAT PARQUET)"
	if err := a.Exec(ctx, copySQL); err != nil {
		t.Fatalf("failed to write parquet fixture: %v", err)
	}

	if err := a.LoadFile(ctx, "nums", FormatParquet, parquetPath); err != nil {
		t.Fatalf("failed to load parquet: %v", err)
	}

	meta, err := a.GetTableMetadata(ctx, "nums")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if meta.RowCount != 5 {
		t.Errorf("row count: got %d, want 5", meta.RowCount)
	}
}

func TestDuckDBAdapter_LoadFileMultiple(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	dir := t.TempDir()
	p1 := writeFile(t, dir, "a.csv", "id,name\n1,alice\n")
	p2 := writeFile(t, dir, "b.csv", "id,name\n2,bob\n3,carol\n")

	if err := a.LoadFile(ctx, "people", FormatCSV, p1, p2); err != nil {
		t.Fatalf("failed to load multiple files: %v", err)
	}

	meta, err := a.GetTableMetadata(ctx, "people")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if meta.RowCount != 3 {
		t.Errorf("row count: got %d, want 3", meta.RowCount)
	}
}

func TestDuckDBAdapter_LoadFileUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	err := a.LoadFile(ctx, "t", Format("xml"), "file.xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestDuckDBAdapter_DropTable(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	if err := a.Exec(ctx, `CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	exists, err := a.TableExists(ctx, "t")
	if err != nil {
		t.Fatalf("failed to check existence: %v", err)
	}
	if !exists {
		t.Fatal("table should exist after create")
	}

	if err := a.DropTable(ctx, "t"); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	exists, err = a.TableExists(ctx, "t")
	if err != nil {
		t.Fatalf("failed to check existence: %v", err)
	}
	if exists {
		t.Error("table should not exist after drop")
	}

	// Dropping again is not an error.
	if err := a.DropTable(ctx, "t"); err != nil {
		t.Errorf("drop of missing table should succeed: %v", err)
	}
}

func TestDuckDBAdapter_GetTableMetadataNotFound(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	if _, err := a.GetTableMetadata(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"orders", `"orders"`},
		{`weird"name`, `"weird""name"`},
		{"select", `"select"`},
	}
	for _, tt := range tests {
		if got := QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := QuoteLiteral("it's"); got != "'it''s'" {
		t.Errorf("QuoteLiteral: got %s", got)
	}
}
