package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testEntries() []model.DictionaryEntry {
	return []model.DictionaryEntry{
		{Term: "금리", Definition: "빌린 돈에 붙는 이자의 비율"},
		{Term: "예금자 보호", Definition: "은행이 망해도 일정 금액까지 돌려받는 제도"},
		{Term: "중도상환수수료", Definition: "대출을 약속보다 일찍 갚을 때 내는 돈"},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates missing directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "finlens.db")
		store, err := NewSQLiteStorage(dbPath)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()

		if store.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", store.Path(), dbPath)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := NewSQLiteStorage("  "); !errors.Is(err, ErrEmptyString) {
			t.Errorf("NewSQLiteStorage() error = %v, want %v", err, ErrEmptyString)
		}
	})
}

func TestSQLiteStorage_ReplaceDictionary(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.ReplaceDictionary(ctx, "first.csv", testEntries()); err != nil {
		t.Fatalf("ReplaceDictionary() error = %v", err)
	}

	got, err := store.DictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("DictionaryEntries() error = %v", err)
	}
	want := testEntries()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// A second import replaces everything and keeps the new order.
	replacement := []model.DictionaryEntry{
		{Term: "환율", Definition: "두 나라 돈을 바꾸는 비율"},
		{Term: "금리", Definition: "이자의 비율"},
	}
	if err := store.ReplaceDictionary(ctx, "second.csv", replacement); err != nil {
		t.Fatalf("ReplaceDictionary() second import error = %v", err)
	}

	got, err = store.DictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("DictionaryEntries() error = %v", err)
	}
	if len(got) != 2 || got[0].Term != "환율" || got[1].Definition != "이자의 비율" {
		t.Errorf("DictionaryEntries() after replace = %+v", got)
	}

	count, err := store.CountDictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("CountDictionaryEntries() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountDictionaryEntries() = %d, want 2", count)
	}

	last, err := store.LastImport(ctx)
	if err != nil {
		t.Fatalf("LastImport() error = %v", err)
	}
	if last.Source != "second.csv" || last.EntryCount != 2 {
		t.Errorf("LastImport() = %+v, want second.csv with 2 entries", last)
	}
	if last.ImportedAt.IsZero() {
		t.Error("LastImport() has zero ImportedAt")
	}
}

func TestSQLiteStorage_ReplaceDictionaryRejectsInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.ReplaceDictionary(ctx, "seed.csv", testEntries()); err != nil {
		t.Fatalf("ReplaceDictionary() error = %v", err)
	}

	tests := []struct {
		wantErr error
		name    string
		source  string
		entries []model.DictionaryEntry
	}{
		{
			name:    "empty slice",
			source:  "x.csv",
			entries: nil,
			wantErr: ErrEmptySlice,
		},
		{
			name:    "blank source",
			source:  "",
			entries: testEntries(),
			wantErr: ErrEmptyString,
		},
		{
			name:    "blank definition",
			source:  "x.csv",
			entries: []model.DictionaryEntry{{Term: "금리", Definition: " "}},
			wantErr: ErrInvalidEntry,
		},
		{
			name:   "duplicate term",
			source: "x.csv",
			entries: []model.DictionaryEntry{
				{Term: "금리", Definition: "a"},
				{Term: "금리", Definition: "b"},
			},
			wantErr: ErrDuplicateTerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ReplaceDictionary(ctx, tt.source, tt.entries)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReplaceDictionary() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected imports leave the stored dictionary untouched.
	count, err := store.CountDictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("CountDictionaryEntries() error = %v", err)
	}
	if count != len(testEntries()) {
		t.Errorf("CountDictionaryEntries() = %d, want %d", count, len(testEntries()))
	}
}

func TestSQLiteStorage_EmptyDictionary(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	entries, err := store.DictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("DictionaryEntries() error = %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("DictionaryEntries() = %#v, want empty non-nil slice", entries)
	}

	if _, err := store.LastImport(ctx); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("LastImport() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_Backup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.ReplaceDictionary(ctx, "seed.csv", testEntries()); err != nil {
		t.Fatalf("ReplaceDictionary() error = %v", err)
	}

	path, err := store.Backup(ctx, filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	backup, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer func() { _ = backup.Close() }()

	entries, err := backup.DictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("backup DictionaryEntries() error = %v", err)
	}
	if len(entries) != len(testEntries()) {
		t.Errorf("backup has %d entries, want %d", len(entries), len(testEntries()))
	}

	version, err := backup.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("backup SchemaVersion() error = %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("backup schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(memoryPath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage(:memory:) error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := store.ReplaceDictionary(ctx, "memory", testEntries()); err != nil {
		t.Fatalf("ReplaceDictionary() error = %v", err)
	}
	n, err := store.CountDictionaryEntries(ctx)
	if err != nil {
		t.Fatalf("CountDictionaryEntries() error = %v", err)
	}
	if n != len(testEntries()) {
		t.Errorf("CountDictionaryEntries() = %d, want %d", n, len(testEntries()))
	}
}

func TestDSN(t *testing.T) {
	if got := dsn("/tmp/finlens.db"); !strings.Contains(got, "_journal_mode=WAL") {
		t.Errorf("dsn(file) = %q, want WAL journal", got)
	}
	if got := dsn(memoryPath); strings.Contains(got, "_journal_mode") {
		t.Errorf("dsn(:memory:) = %q, want no journal mode", got)
	}
}
