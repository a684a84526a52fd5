package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/model"
)

// ImportRecord describes one dictionary import.
type ImportRecord struct {
	ImportedAt time.Time
	Source     string
	EntryCount int
}

// ReplaceDictionary swaps the stored dictionary for entries in a single
// transaction and records where they came from.
func (s *SQLiteStorage) ReplaceDictionary(ctx context.Context, source string, entries []model.DictionaryEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(source, "source"); err != nil {
		return err
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM dictionary_entries`); err != nil {
		return fmt.Errorf("failed to clear dictionary: %w", err)
	}
	// Restart ids so stored order matches the import order.
	if _, err = tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'dictionary_entries'`); err != nil {
		return fmt.Errorf("failed to reset dictionary ids: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dictionary_entries (term, definition) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		if _, err = stmt.ExecContext(ctx, entry.Term, entry.Definition); err != nil {
			return fmt.Errorf("failed to insert term %q: %w", entry.Term, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO dictionary_imports (source, entry_count, imported_at) VALUES (?, ?, ?)`,
		source, len(entries), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dictionary: %w", err)
	}
	return nil
}

// DictionaryEntries returns every stored entry in import order.
func (s *SQLiteStorage) DictionaryEntries(ctx context.Context) ([]model.DictionaryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT term, definition FROM dictionary_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dictionary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []model.DictionaryEntry{}
	for rows.Next() {
		var entry model.DictionaryEntry
		if err := rows.Scan(&entry.Term, &entry.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return entries, nil
}

// CountDictionaryEntries returns the number of stored entries.
func (s *SQLiteStorage) CountDictionaryEntries(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dictionary_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dictionary entries: %w", err)
	}
	return count, nil
}

// LastImport returns the most recent import, or common.ErrNotFound.
func (s *SQLiteStorage) LastImport(ctx context.Context) (*ImportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var rec ImportRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT source, entry_count, imported_at
		FROM dictionary_imports
		ORDER BY imported_at DESC, id DESC
		LIMIT 1
	`).Scan(&rec.Source, &rec.EntryCount, &rec.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dictionary import: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last import: %w", err)
	}
	return &rec, nil
}
