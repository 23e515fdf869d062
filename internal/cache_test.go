package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/iksnae/darkscan/testutil"
)

func newMemoryCache(t *testing.T) *AnalysisCache {
	t.Helper()
	db := testutil.CreateInMemoryDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewAnalysisCache(db, ":memory:")
}

func TestOpenAnalysisCache(t *testing.T) {
	dir := filepath.Join(testutil.CreateTempDir(t), "nested", "cache")
	cache, err := OpenAnalysisCache(context.Background(), dir)
	if err != nil {
		t.Fatalf("OpenAnalysisCache() error = %v", err)
	}
	defer cache.Close()

	if cache.Path() != filepath.Join(dir, CacheFileName) {
		t.Errorf("Path() = %q", cache.Path())
	}
	list, err := cache.LoadHistory(context.Background())
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("LoadHistory() on fresh cache = %#v, want empty non-nil", list)
	}
}

func TestAnalysisCacheHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t)

	history := CreateTestHistory(4)
	history[0], history[3] = history[3], history[0]
	if err := cache.SaveHistory(ctx, history); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	got, err := cache.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i := range history {
		if got[i].ID != history[i].ID || got[i].DPIScore != history[i].DPIScore {
			t.Errorf("got[%d] = %s/%d, want %s/%d", i, got[i].ID, got[i].DPIScore, history[i].ID, history[i].DPIScore)
		}
	}

	// Replacement is wholesale.
	if err := cache.SaveHistory(ctx, history[:1]); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}
	got, _ = cache.LoadHistory(ctx)
	if len(got) != 1 || got[0].ID != history[0].ID {
		t.Errorf("after replace = %+v", got)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.HistoryCount != 1 || stats.LastSync.IsZero() || stats.HasCurrent {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestAnalysisCacheCurrent(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t)

	if _, ok, err := cache.LoadCurrent(ctx); err != nil || ok {
		t.Fatalf("LoadCurrent() on empty cache = %v, %v", ok, err)
	}

	a := CreateTestAnalysis("c1", 64)
	a.Screenshot = "/tmp/shot.png"
	if err := cache.SaveCurrent(ctx, a); err != nil {
		t.Fatalf("SaveCurrent() error = %v", err)
	}
	b := CreateTestAnalysis("c2", 12)
	if err := cache.SaveCurrent(ctx, b); err != nil {
		t.Fatalf("SaveCurrent() overwrite error = %v", err)
	}

	got, ok, err := cache.LoadCurrent(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadCurrent() = %v, %v", ok, err)
	}
	if got.ID != "c2" || got.Screenshot != "" {
		t.Errorf("LoadCurrent() = %s screenshot %q", got.ID, got.Screenshot)
	}

	if err := cache.SaveCurrent(ctx, a); err != nil {
		t.Fatalf("SaveCurrent() error = %v", err)
	}
	got, _, _ = cache.LoadCurrent(ctx)
	if got.Screenshot != "/tmp/shot.png" {
		t.Errorf("Screenshot = %q", got.Screenshot)
	}

	if err := cache.ClearCurrent(ctx); err != nil {
		t.Fatalf("ClearCurrent() error = %v", err)
	}
	if _, ok, _ := cache.LoadCurrent(ctx); ok {
		t.Error("current still present after ClearCurrent()")
	}
}

func TestAnalysisCacheRestorePersist(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t)

	store := NewSessionStore()
	store.SetHistory(CreateTestHistory(2))
	store.SetCurrentAnalysis(CreateTestAnalysis("cur", 33))
	if err := cache.Persist(ctx, store); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	restored := NewSessionStore()
	if err := cache.Restore(ctx, restored); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(restored.History()) != 2 {
		t.Errorf("restored history = %d", len(restored.History()))
	}
	if cur, ok := restored.CurrentAnalysis(); !ok || cur.ID != "cur" {
		t.Errorf("restored current = %v, %v", cur, ok)
	}

	store.ClearCurrent()
	if err := cache.Persist(ctx, store); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if _, ok, _ := cache.LoadCurrent(ctx); ok {
		t.Error("Persist() should clear the cached current analysis")
	}
}

func TestAnalysisCacheSaveHistoryRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM analyses").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO analyses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO analyses").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	cache := NewAnalysisCache(db, "mock.db")
	err = cache.SaveHistory(context.Background(), CreateTestHistory(2))

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("SaveHistory() error = %v, want *StorageError", err)
	}
	if storageErr.Op != "write" || storageErr.Path != "mock.db" {
		t.Errorf("StorageError = %+v", storageErr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAnalysisCacheLoadHistoryQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, payload FROM analyses").WillReturnError(errors.New("no such table"))

	cache := NewAnalysisCache(db, "mock.db")
	if _, err := cache.LoadHistory(context.Background()); err == nil {
		t.Fatal("LoadHistory() expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAnalysisCacheLoadHistoryRejectsCorruptRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "payload"}).
		AddRow("ok", `{"id":"ok","dpi_score":10}`).
		AddRow("bad", `{not json`)
	mock.ExpectQuery("SELECT id, payload FROM analyses").WillReturnRows(rows)

	cache := NewAnalysisCache(db, "mock.db")
	list, err := cache.LoadHistory(context.Background())
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "parse" {
		t.Fatalf("LoadHistory() error = %v, want parse *StorageError", err)
	}
	if list != nil {
		t.Errorf("LoadHistory() returned partial snapshot %+v", list)
	}
}

func TestAnalysisCacheRestoreSkipsPartialHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "payload"}).
		AddRow("ok", `{"id":"ok","dpi_score":10}`).
		AddRow("bad", `{not json`)
	mock.ExpectQuery("SELECT id, payload FROM analyses").WillReturnRows(rows)

	store := NewSessionStore()
	if err := NewAnalysisCache(db, "mock.db").Restore(context.Background(), store); err == nil {
		t.Fatal("Restore() expected error")
	}
	if h := store.History(); len(h) != 0 {
		t.Errorf("History() = %+v, want no partially restored entries", h)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
