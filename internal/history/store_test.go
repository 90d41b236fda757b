package history

import (
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store := setupTestStore(t)

	base := time.Now().Add(-time.Minute)
	for i, sql := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		err := store.Record(&Entry{
			ExecutedAt: base.Add(time.Duration(i) * time.Second),
			SQL:        sql,
			Status:     StatusOK,
			RowCount:   1,
			Duration:   5 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("failed to record entry: %v", err)
		}
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].SQL != "SELECT 3" || entries[2].SQL != "SELECT 1" {
		t.Errorf("unexpected order: %q ... %q", entries[0].SQL, entries[2].SQL)
	}
	if entries[0].ID == "" {
		t.Error("entry ID should be generated")
	}
	if entries[0].Duration != 5*time.Millisecond {
		t.Errorf("duration: got %v, want 5ms", entries[0].Duration)
	}
}

func TestSQLiteStore_RecordError(t *testing.T) {
	store := setupTestStore(t)

	err := store.Record(&Entry{
		SQL:    "SELEC broken",
		Status: StatusError,
		Error:  "syntax error near SELEC",
	})
	if err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	entries, err := store.Recent(1)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != StatusError {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Error == "" {
		t.Error("error message should be stored")
	}
}

func TestSQLiteStore_RecentLimit(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 10; i++ {
		if err := store.Record(&Entry{SQL: "SELECT 1", Status: StatusOK}); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	entries, err := store.Recent(4)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("got %d entries, want 4", len(entries))
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	store := setupTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		err := store.Record(&Entry{
			ExecutedAt: base.Add(time.Duration(i) * time.Second),
			SQL:        "SELECT 1",
			Status:     StatusOK,
		})
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	if err := store.Prune(3); err != nil {
		t.Fatalf("failed to prune: %v", err)
	}

	entries, err := store.Recent(100)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries after prune, want 3", len(entries))
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.Record(&Entry{SQL: "SELECT 1", Status: StatusOK}); err == nil {
		t.Error("expected error recording on unopened store")
	}
	if _, err := store.Recent(1); err == nil {
		t.Error("expected error reading unopened store")
	}
}
