// Package testutil provides shared fixtures for tests that need a populated
// dictionary store or dictionary file.
package testutil

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/finlens/internal/model"
	"github.com/Veraticus/finlens/internal/storage"
)

// TestDB represents a migrated test database with its seeded entries.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Entries []model.DictionaryEntry
}

// SetupTestDB creates a file-backed database in a temporary directory,
// migrates it and seeds it with entries. Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.FixtureBanking...)
func SetupTestDB(t *testing.T, entries ...model.DictionaryEntry) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "finlens.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("failed to close test database: %v", closeErr)
		}
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(entries) > 0 {
		if err := store.ReplaceDictionary(ctx, "testutil", entries); err != nil {
			t.Fatalf("failed to seed dictionary: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Entries: entries,
		t:       t,
	}
}

// MustCount returns the number of stored entries or fails the test.
func (db *TestDB) MustCount() int {
	db.t.Helper()
	n, err := db.Storage.CountDictionaryEntries(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count entries: %v", err)
	}
	return n
}

// WriteCSV writes header followed by one row per entry to a temporary file
// and returns its path.
func WriteCSV(t *testing.T, header []string, entries []model.DictionaryEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fin_terms.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv: %v", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	rows := [][]string{header}
	for _, e := range entries {
		rows = append(rows, []string{e.Term, e.Definition})
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}
