package orchestrator

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func human(sid StrategyID, phase state.Phase, q float64, at time.Time) OutcomeRecord {
	return OutcomeRecord{
		GenerationID: "g", StrategyID: sid, Phase: phase,
		Source: SourceHuman, Quality: q, CreatedAt: at,
	}
}

func TestStrategyMemory_RecordAndQuery(t *testing.T) {
	mem, err := NewStrategyMemory(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	// No data → empty result
	sid, _, err := mem.BestStrategy("")
	if err != nil {
		t.Fatal(err)
	}
	if sid != "" {
		t.Errorf("expected empty strategy, got %q", sid)
	}

	// 2 ratings → still below threshold
	for i := 0; i < 2; i++ {
		if err := mem.RecordOutcome(human(StrategyStateVector, state.PhaseLuteal, 4.5, now)); err != nil {
			t.Fatal(err)
		}
	}
	sid, _, _ = mem.BestStrategy("")
	if sid != "" {
		t.Errorf("expected empty (below threshold), got %q", sid)
	}

	// 3rd rating → selected
	if err := mem.RecordOutcome(human(StrategyStateVector, state.PhaseLuteal, 4.5, now)); err != nil {
		t.Fatal(err)
	}
	sid, score, err := mem.BestStrategy("")
	if err != nil {
		t.Fatal(err)
	}
	if sid != StrategyStateVector {
		t.Errorf("expected %q, got %q", StrategyStateVector, sid)
	}
	if score < 4.49 || score > 4.51 {
		t.Errorf("expected score ~4.5, got %f", score)
	}

	// Phase filter excludes other phases.
	sid, _, _ = mem.BestStrategy(state.PhaseFollicular)
	if sid != "" {
		t.Errorf("expected no strategy for follicular, got %q", sid)
	}
}

func TestStrategyMemory_IgnoresAutoOutcomes(t *testing.T) {
	mem, err := NewStrategyMemory(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := mem.RecordOutcome(OutcomeRecord{
			GenerationID: "g", StrategyID: StrategyGeneric, Phase: state.PhaseLuteal,
			Source: SourceAuto, Quality: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}
	sid, _, _ := mem.BestStrategy("")
	if sid != "" {
		t.Fatalf("automatic outcomes must not pick a strategy, got %q", sid)
	}
}

func TestStrategyMemory_DecayFavorsRecent(t *testing.T) {
	mem, err := NewStrategyMemory(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)

	// Phase-Aware: old 5s, recent 2s. Generic: steady 3.5.
	for i := 0; i < 3; i++ {
		mem.RecordOutcome(human(StrategyPhaseAware, state.PhaseMenstrual, 5, old))
		mem.RecordOutcome(human(StrategyPhaseAware, state.PhaseMenstrual, 2, now))
		mem.RecordOutcome(human(StrategyGeneric, state.PhaseMenstrual, 3.5, now))
	}

	sid, _, err := mem.BestStrategy(state.PhaseMenstrual)
	if err != nil {
		t.Fatal(err)
	}
	if sid != StrategyGeneric {
		t.Errorf("expected recent ratings to dominate, got %q", sid)
	}
}

func TestStrategyMemory_Summary(t *testing.T) {
	mem, err := NewStrategyMemory(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	mem.RecordOutcome(OutcomeRecord{GenerationID: "a", StrategyID: StrategyGeneric, Phase: state.PhaseLuteal, Source: SourceAuto, Quality: 0.5})
	mem.RecordOutcome(OutcomeRecord{GenerationID: "b", StrategyID: StrategyGeneric, Phase: state.PhaseLuteal, Source: SourceAuto, Quality: 1, Violation: true})
	mem.RecordOutcome(human(StrategyGeneric, state.PhaseLuteal, 4, now))
	mem.RecordOutcome(human(StrategyGeneric, state.PhaseLuteal, 3, now))

	summary, err := mem.Summary("")
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != len(Strategies) {
		t.Fatalf("expected every strategy, got %d", len(summary))
	}
	g := summary[0]
	if g.Strategy != StrategyGeneric || g.Generations != 2 || g.MeanAlignment != 0.75 || g.Violations != 1 {
		t.Errorf("unexpected auto aggregate: %+v", g)
	}
	if g.Ratings != 2 || g.MeanRating != 3.5 {
		t.Errorf("unexpected human aggregate: %+v", g)
	}
	if summary[3].Generations != 0 || summary[3].Ratings != 0 {
		t.Errorf("expected empty row for unused strategy: %+v", summary[3])
	}

	other, err := mem.Summary(state.PhaseOvulatory)
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Generations != 0 {
		t.Errorf("phase filter leaked rows: %+v", other[0])
	}
}
