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
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-run-tests
func TestLogRun_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := RunEntry{
		ScenarioID:   "s1",
		GenerationID: "g1",
		Strategy:     "Generic",
		TriggerType:  "api",
		PromptHash:   PromptHash("hello"),
		RecordJSON:   `{"model":"gemini-2.5-flash"}`,
		Decision:     "stored",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogRun(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM run_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var scenarioID, decision string
	db.QueryRow("SELECT scenario_id, decision FROM run_log").Scan(&scenarioID, &decision)
	if scenarioID != "s1" {
		t.Errorf("expected scenario_id 's1', got %q", scenarioID)
	}
	if decision != "stored" {
		t.Errorf("expected decision 'stored', got %q", decision)
	}
}

func TestLogRun_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC().Add(-time.Second)
	err := LogRun(db, RunEntry{ScenarioID: "s2", Strategy: "Phase-Aware", TriggerType: "lab", Decision: "error", Reason: "timeout"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := ListRuns(db, "s2")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].CreatedAt.Before(before) {
		t.Errorf("expected created_at to default to now, got %v", runs[0].CreatedAt)
	}
	if runs[0].GenerationID != "" || runs[0].RecordJSON != "" {
		t.Errorf("expected empty optional fields, got %+v", runs[0])
	}
	if runs[0].Reason != "timeout" {
		t.Errorf("expected reason 'timeout', got %q", runs[0].Reason)
	}
}

func TestListRuns_FiltersByScenario(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for _, id := range []string{"a", "b", "a"} {
		if err := LogRun(db, RunEntry{ScenarioID: id, Strategy: "Generic", TriggerType: "api", Decision: "stored"}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := ListRuns(db, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for scenario a, got %d", len(runs))
	}
}

func TestPromptHash_Stable(t *testing.T) {
	if PromptHash("x") != PromptHash("x") {
		t.Fatal("expected stable hash")
	}
	if PromptHash("x") == PromptHash("y") {
		t.Fatal("expected different hashes")
	}
	if len(PromptHash("x")) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(PromptHash("x")))
	}
}

// #endregion log-run-tests
