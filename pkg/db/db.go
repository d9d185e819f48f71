// Package db archives finished runs in a local SQLite database so earlier
// rankings can be listed and replayed.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNoPath is returned by Open when no database file was named.
var ErrNoPath = errors.New("no database path given")

type DB struct {
	*sql.DB
	path string
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// run_sources and run_entries rely on ON DELETE CASCADE.
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return sqlDB, nil
}

// Open opens the run archive at dbPath, creating the file and its tables on
// first use.
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, ErrNoPath
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: dbPath}
	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare run archive %s: %w", dbPath, err)
	}
	return db, nil
}

// migrate creates the tables unless the runs table is already there.
func (db *DB) migrate() error {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'runs'").Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.InitSchema()
	case err != nil:
		return fmt.Errorf("failed to look up runs table: %w", err)
	}
	return nil
}

func (db *DB) Path() string {
	return db.path
}

// InitSchema creates every table and index. It is safe to call twice.
func (db *DB) InitSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
