package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE run_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		version_id   TEXT NOT NULL,
		trigger      TEXT NOT NULL,
		metrics_json TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-run-tests
func TestLogRun_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := RunEntry{
		RunID:       "run-1",
		VersionID:   "v1",
		Trigger:     "train",
		MetricsJSON: `{"auc":0.91}`,
		Decision:    "commit",
		Reason:      "passed gate",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	runID, err := LogRun(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runID != "run-1" {
		t.Errorf("expected run ID to be kept, got %q", runID)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM run_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var versionID, decision, createdAt string
	db.QueryRow("SELECT version_id, decision, created_at FROM run_log").Scan(&versionID, &decision, &createdAt)
	if versionID != "v1" {
		t.Errorf("expected version_id 'v1', got %q", versionID)
	}
	if decision != "commit" {
		t.Errorf("expected decision 'commit', got %q", decision)
	}
	if createdAt != "2026-01-01T00:00:00Z" {
		t.Errorf("unexpected created_at %q", createdAt)
	}
}

func TestLogRun_Defaults(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC().Add(-time.Second)
	runID, err := LogRun(db, RunEntry{VersionID: "v2", Trigger: "rollback", Decision: "rollback"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runID == "" {
		t.Fatal("expected generated run ID")
	}

	var createdStr string
	var metrics, reason sql.NullString
	db.QueryRow("SELECT created_at, metrics_json, reason FROM run_log").Scan(&createdStr, &metrics, &reason)
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if created.Before(before) {
		t.Errorf("created_at %v should default to now", created)
	}
	if metrics.Valid || reason.Valid {
		t.Error("empty metrics and reason should be stored as NULL")
	}
}

func TestLogRun_ClosedDB(t *testing.T) {
	db := setupDB(t)
	db.Close()

	if _, err := LogRun(db, RunEntry{VersionID: "v3", Trigger: "train", Decision: "reject"}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestLogRun_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, err := LogRun(db, RunEntry{VersionID: "v4", Trigger: "train", Decision: "commit"}); err == nil {
		t.Fatal("expected error when run_log does not exist")
	}
}

// #endregion log-run-tests

// #region logger-tests
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(DefaultConfig(), false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Error("info logger should not enable debug")
	}

	logger, err = NewLogger(Config{Level: "warn", Encoding: "console"}, true)
	if err != nil {
		t.Fatalf("NewLogger verbose: %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("verbose logger should enable debug")
	}

	if _, err := NewLogger(Config{Level: "loud"}, false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// #endregion logger-tests
