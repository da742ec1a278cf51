package logging

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario_id   TEXT NOT NULL,
	generation_id TEXT,
	strategy      TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	prompt_hash   TEXT,
	record_json   TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
);
`

// EnsureSchema creates the run_log table if needed.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create run_log: %w", err)
	}
	return nil
}
// #endregion schema

// #region log-run
// LogRun writes a run entry to the run_log table.
func LogRun(db *sql.DB, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (scenario_id, generation_id, strategy, trigger_type, prompt_hash, record_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ScenarioID,
		nullIfEmpty(entry.GenerationID),
		entry.Strategy,
		entry.TriggerType,
		nullIfEmpty(entry.PromptHash),
		nullIfEmpty(entry.RecordJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}
// #endregion log-run

// #region list-runs
// ListRuns returns the run entries for a scenario in insertion order.
func ListRuns(db *sql.DB, scenarioID string) ([]RunEntry, error) {
	rows, err := db.Query(
		`SELECT scenario_id, COALESCE(generation_id, ''), strategy, trigger_type, COALESCE(prompt_hash, ''),
		        COALESCE(record_json, ''), decision, COALESCE(reason, ''), created_at
		 FROM run_log WHERE scenario_id = ? ORDER BY id`, scenarioID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var createdStr string
		if err := rows.Scan(&e.ScenarioID, &e.GenerationID, &e.Strategy, &e.TriggerType, &e.PromptHash,
			&e.RecordJSON, &e.Decision, &e.Reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion list-runs

// #region helpers
// PromptHash returns a short stable hash of a prompt for grouping runs.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
