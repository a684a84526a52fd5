package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBackupExists is returned when the backup file is already present.
var ErrBackupExists = errors.New("backup already exists")

// Backup writes a consistent copy of the database into dir and returns the
// file path. The file name carries the current time.
func (s *SQLiteStorage) Backup(ctx context.Context, dir string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(dir, "dir"); err != nil {
		return "", err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest := filepath.Join(absDir, fmt.Sprintf("finlens-%s.db", time.Now().Format("20060102-150405.000")))
	if _, err := os.Stat(dest); err == nil {
		return "", ErrBackupExists
	}

	// VACUUM INTO takes a literal, so quote characters cannot be allowed.
	if strings.ContainsAny(dest, `'";`) {
		return "", fmt.Errorf("invalid backup path %q: contains forbidden characters", dest)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - dest is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return dest, nil
}
