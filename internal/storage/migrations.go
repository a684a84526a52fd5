package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version this build works against.
const ExpectedSchemaVersion = 2

// ErrSchemaTooNew is returned when the database was migrated by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// Migration is one schema step. Its statements run in a single transaction
// together with the user_version bump.
type Migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Create dictionary entries table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS dictionary_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				term TEXT UNIQUE NOT NULL,
				definition TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		Version:     2,
		Description: "Record dictionary imports",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS dictionary_imports (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				source TEXT NOT NULL,
				entry_count INTEGER NOT NULL,
				imported_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_dictionary_imports_imported_at
				ON dictionary_imports(imported_at)`,
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("%w: version %d, this build knows %d", ErrSchemaTooNew, current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		slog.Info("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

func (s *SQLiteStorage) apply(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
