package internal

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
	position  INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	payload   TEXT NOT NULL,
	synced_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS current_analysis (
	slot       INTEGER PRIMARY KEY CHECK (slot = 1),
	payload    TEXT NOT NULL,
	screenshot TEXT,
	updated_at INTEGER NOT NULL
);`

// OpenDatabase opens (creating if needed) a SQLite database
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// OpenDatabaseReadOnly opens an existing SQLite database without write access
func OpenDatabaseReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The query is only honoured for file: URIs.
	return OpenDatabase("file:" + path + "?mode=ro")
}

// Migrate creates the cache tables
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
