package adapter

import (
	"errors"
	"testing"
)

func TestNew_DuckDBRegistered(t *testing.T) {
	a, err := New(Config{Type: "duckdb"})
	if err != nil {
		t.Fatalf("failed to create duckdb adapter: %v", err)
	}
	if a.DialectName() != "duckdb" {
		t.Errorf("dialect: got %s, want duckdb", a.DialectName())
	}
}

func TestNew_DefaultsToDuckDB(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("failed to create default adapter: %v", err)
	}
	if _, ok := a.(*DuckDBAdapter); !ok {
		t.Errorf("default adapter is %T, want *DuckDBAdapter", a)
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(Config{Type: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown adapter type")
	}

	var unknownErr *UnknownAdapterError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownAdapterError, got %T", err)
	}
	if unknownErr.Type != "oracle" {
		t.Errorf("error type: got %s, want oracle", unknownErr.Type)
	}
}

func TestList_ContainsDuckDB(t *testing.T) {
	names := List()
	for _, n := range names {
		if n == "duckdb" {
			return
		}
	}
	t.Errorf("duckdb not in registered adapters: %v", names)
}
