package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region log-run
// LogRun writes a run entry to the run_log table and returns its run ID.
func LogRun(db *sql.DB, entry RunEntry) (string, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.RunID == "" {
		entry.RunID = uuid.New().String()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, version_id, trigger, metrics_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.VersionID,
		entry.Trigger,
		nullIfEmpty(entry.MetricsJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("log run: %w", err)
	}
	return entry.RunID, nil
}

// #endregion log-run

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
