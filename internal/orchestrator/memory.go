package orchestrator

// #region imports
import (
	"database/sql"
	"math"
	"time"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #endregion

// #region schema

const strategyOutcomesSchema = `
CREATE TABLE IF NOT EXISTS strategy_outcomes (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    generation_id  TEXT NOT NULL,
    strategy_id    TEXT NOT NULL,
    phase          TEXT NOT NULL,
    source         TEXT NOT NULL,
    quality        REAL NOT NULL,
    violation      INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
);
`

const strategyOutcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_strategy_outcomes_lookup
ON strategy_outcomes(source, phase, strategy_id);
`

// minRatings is the sample floor before BestStrategy trusts a strategy.
const minRatings = 3

// halfLife weights recent ratings over old ones.
const halfLife = 7 * 24 * time.Hour

// #endregion

// #region memory-struct

// StrategyMemory persists strategy outcomes in SQLite and queries
// decay-weighted results.
type StrategyMemory struct {
	db  *sql.DB
	now func() time.Time
}

// NewStrategyMemory initializes the strategy_outcomes table and returns a StrategyMemory.
func NewStrategyMemory(db *sql.DB) (*StrategyMemory, error) {
	if _, err := db.Exec(strategyOutcomesSchema); err != nil {
		return nil, err
	}
	if _, err := db.Exec(strategyOutcomesIndex); err != nil {
		return nil, err
	}
	return &StrategyMemory{db: db, now: time.Now}, nil
}

// #endregion

// #region record-outcome

// RecordOutcome persists a single strategy outcome row.
func (m *StrategyMemory) RecordOutcome(rec OutcomeRecord) error {
	violation := 0
	if rec.Violation {
		violation = 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	_, err := m.db.Exec(`
		INSERT INTO strategy_outcomes
		(generation_id, strategy_id, phase, source, quality, violation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.GenerationID,
		string(rec.StrategyID),
		string(rec.Phase),
		string(rec.Source),
		rec.Quality,
		violation,
		rec.CreatedAt.UTC().Format(state.TimeLayout),
	)
	return err
}

// #endregion

// #region accumulate

type stratAccum struct {
	count       int
	sum         float64
	weightedSum float64
	totalWeight float64
	violations  int
}

func (a *stratAccum) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

func (a *stratAccum) weighted() float64 {
	if a.totalWeight == 0 {
		return 0
	}
	return a.weightedSum / a.totalWeight
}

// accumulate reads outcomes of one source, optionally narrowed to a phase.
func (m *StrategyMemory) accumulate(source OutcomeSource, phase state.Phase) (map[StrategyID]*stratAccum, error) {
	q := `SELECT strategy_id, quality, violation, created_at FROM strategy_outcomes WHERE source = ?`
	args := []any{string(source)}
	if phase != "" {
		q += ` AND phase = ?`
		args = append(args, string(phase))
	}
	rows, err := m.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := m.now()
	accum := make(map[StrategyID]*stratAccum)
	for rows.Next() {
		var sid, createdAtStr string
		var quality float64
		var violation int
		if err := rows.Scan(&sid, &quality, &violation, &createdAtStr); err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(state.TimeLayout, createdAtStr)
		if err != nil {
			continue
		}
		weight := math.Exp(-now.Sub(createdAt).Hours() / halfLife.Hours())

		a, ok := accum[StrategyID(sid)]
		if !ok {
			a = &stratAccum{}
			accum[StrategyID(sid)] = a
		}
		a.count++
		a.sum += quality
		a.weightedSum += quality * weight
		a.totalWeight += weight
		a.violations += violation
	}
	return accum, rows.Err()
}

// #endregion

// #region best-strategy

// BestStrategy returns the strategy with the highest decay-weighted human
// rating, optionally for one phase. Returns ("", 0, nil) when no strategy
// has at least minRatings ratings.
func (m *StrategyMemory) BestStrategy(phase state.Phase) (StrategyID, float64, error) {
	accum, err := m.accumulate(SourceHuman, phase)
	if err != nil {
		return "", 0, err
	}

	var bestID StrategyID
	bestScore := -1.0
	// Iterate in run order so ties resolve the same way every time.
	for _, sid := range Strategies {
		a, ok := accum[sid]
		if !ok || a.count < minRatings {
			continue
		}
		if avg := a.weighted(); avg > bestScore {
			bestScore = avg
			bestID = sid
		}
	}
	if bestID == "" {
		return "", 0, nil
	}
	return bestID, bestScore, nil
}

// #endregion

// #region summary

// Summary aggregates automatic and human outcomes per strategy, in run
// order. Every strategy appears even with no outcomes.
func (m *StrategyMemory) Summary(phase state.Phase) ([]StrategySummary, error) {
	auto, err := m.accumulate(SourceAuto, phase)
	if err != nil {
		return nil, err
	}
	human, err := m.accumulate(SourceHuman, phase)
	if err != nil {
		return nil, err
	}

	out := make([]StrategySummary, 0, len(Strategies))
	for _, sid := range Strategies {
		s := StrategySummary{Strategy: sid}
		if a, ok := auto[sid]; ok {
			s.Generations = a.count
			s.MeanAlignment = round3(a.mean())
			s.Violations = a.violations
		}
		if h, ok := human[sid]; ok {
			s.Ratings = h.count
			s.MeanRating = round3(h.mean())
			s.WeightedScore = round3(h.weighted())
		}
		out = append(out, s)
	}
	return out, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// #endregion
