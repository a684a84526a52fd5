package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

// SQLiteStorage keeps the financial dictionary in a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath. The
// parent directory is created for file databases. Call Migrate before use.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers, and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dbPath, err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

func dsn(dbPath string) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	if dbPath != memoryPath {
		params.Set("_journal_mode", "WAL")
	}
	return dbPath + "?" + params.Encode()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
