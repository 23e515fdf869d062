package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CacheFileName is the SQLite file inside the cache directory
const CacheFileName = "darkscan.db"

// AnalysisCache persists the history snapshot and the current analysis
// between runs
type AnalysisCache struct {
	db   *sql.DB
	path string
}

// CacheStats summarises the cache contents
type CacheStats struct {
	Path         string
	HistoryCount int
	HasCurrent   bool
	LastSync     time.Time
}

// OpenAnalysisCache opens the cache in dir, creating the directory and schema
func OpenAnalysisCache(ctx context.Context, dir string) (*AnalysisCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Path: dir, Op: "open", Err: err}
	}
	path := filepath.Join(dir, CacheFileName)

	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "migrate", Err: err}
	}
	return &AnalysisCache{db: db, path: path}, nil
}

// NewAnalysisCache wraps an already migrated database
func NewAnalysisCache(db *sql.DB, path string) *AnalysisCache {
	return &AnalysisCache{db: db, path: path}
}

// Path returns the database file path
func (c *AnalysisCache) Path() string {
	return c.path
}

// Close closes the underlying database
func (c *AnalysisCache) Close() error {
	return c.db.Close()
}

// SaveHistory replaces the cached history snapshot in one transaction
func (c *AnalysisCache) SaveHistory(ctx context.Context, list []Analysis) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM analyses"); err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to clear history: %w", err)}
	}

	now := time.Now().UnixMilli()
	for i, a := range list {
		payload, err := json.Marshal(a)
		if err != nil {
			return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to marshal analysis %s: %w", a.ID, err)}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO analyses (position, id, payload, synced_at) VALUES (?, ?, ?, ?)",
			i, a.ID, string(payload), now,
		); err != nil {
			return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to insert analysis %s: %w", a.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to commit: %w", err)}
	}
	LogDebug("Cached %d analyses", len(list))
	return nil
}

// LoadHistory returns the cached history snapshot in service order, never nil.
// A single unreadable row fails the whole load.
func (c *AnalysisCache) LoadHistory(ctx context.Context) ([]Analysis, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, payload FROM analyses ORDER BY position")
	if err != nil {
		return nil, &StorageError{Path: c.path, Op: "read", Err: fmt.Errorf("query failed: %w", err)}
	}
	defer rows.Close()

	list := []Analysis{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, &StorageError{Path: c.path, Op: "read", Err: fmt.Errorf("scan failed: %w", err)}
		}
		var a Analysis
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, &StorageError{Path: c.path, Op: "parse", Err: fmt.Errorf("unreadable cached analysis %s: %w", id, err)}
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: c.path, Op: "read", Err: fmt.Errorf("rows iteration error: %w", err)}
	}
	return list, nil
}

// SaveCurrent stores the current analysis and its screenshot reference
func (c *AnalysisCache) SaveCurrent(ctx context.Context, a Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: fmt.Errorf("failed to marshal analysis: %w", err)}
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO current_analysis (slot, payload, screenshot, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, screenshot = excluded.screenshot, updated_at = excluded.updated_at`,
		string(payload), a.Screenshot, time.Now().UnixMilli(),
	)
	if err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: err}
	}
	return nil
}

// LoadCurrent returns the cached current analysis, if any
func (c *AnalysisCache) LoadCurrent(ctx context.Context) (*Analysis, bool, error) {
	var payload string
	var screenshot sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT payload, screenshot FROM current_analysis WHERE slot = 1").Scan(&payload, &screenshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageError{Path: c.path, Op: "read", Err: err}
	}

	var a Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, false, &StorageError{Path: c.path, Op: "read", Err: fmt.Errorf("failed to unmarshal analysis: %w", err)}
	}
	a.Screenshot = screenshot.String
	return &a, true, nil
}

// ClearCurrent removes the cached current analysis
func (c *AnalysisCache) ClearCurrent(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM current_analysis"); err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: err}
	}
	return nil
}

// Stats reports counts and the last sync time
func (c *AnalysisCache) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Path: c.path}
	var lastSync sql.NullInt64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(synced_at) FROM analyses").Scan(&stats.HistoryCount, &lastSync); err != nil {
		return nil, &StorageError{Path: c.path, Op: "read", Err: err}
	}
	if lastSync.Valid {
		stats.LastSync = time.UnixMilli(lastSync.Int64)
	}
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM current_analysis").Scan(&n); err != nil {
		return nil, &StorageError{Path: c.path, Op: "read", Err: err}
	}
	stats.HasCurrent = n > 0
	return stats, nil
}

// Restore seeds a store from the cache. The store is left untouched when
// the history snapshot cannot be read in full.
func (c *AnalysisCache) Restore(ctx context.Context, store *SessionStore) error {
	history, err := c.LoadHistory(ctx)
	if err != nil {
		return err
	}
	store.SetHistory(history)

	current, ok, err := c.LoadCurrent(ctx)
	if err != nil {
		return err
	}
	if ok {
		store.SetCurrentAnalysis(*current)
	}
	return nil
}

// Persist writes a store's history and current analysis to the cache
func (c *AnalysisCache) Persist(ctx context.Context, store *SessionStore) error {
	if err := c.SaveHistory(ctx, store.History()); err != nil {
		return err
	}
	if current, ok := store.CurrentAnalysis(); ok {
		return c.SaveCurrent(ctx, *current)
	}
	return c.ClearCurrent(ctx)
}
