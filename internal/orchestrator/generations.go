package orchestrator

// #region imports
import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #endregion

// #region schema

const generationsSchema = `
CREATE TABLE IF NOT EXISTS generations (
    id             TEXT PRIMARY KEY,
    scenario_id    TEXT NOT NULL,
    strategy_type  TEXT NOT NULL,
    model_name     TEXT NOT NULL,
    temperature    REAL NOT NULL,
    top_p          REAL NOT NULL,
    max_tokens     INTEGER,
    seed           INTEGER,
    prompt_text    TEXT NOT NULL,
    output_text    TEXT NOT NULL,
    word_count     INTEGER NOT NULL,
    latency_ms     INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL,
    FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
);

CREATE INDEX IF NOT EXISTS idx_generations_scenario ON generations(scenario_id);

CREATE TABLE IF NOT EXISTS generation_metrics (
    generation_id           TEXT PRIMARY KEY,
    semantic_distance       REAL,
    alignment_score         REAL NOT NULL,
    sentiment_score         REAL NOT NULL,
    violation_flag          INTEGER NOT NULL DEFAULT 0,
    baseline_generation_id  TEXT,
    FOREIGN KEY (generation_id) REFERENCES generations(id)
);
`

// #endregion

// #region store-struct

// GenerationStore persists strategy outputs and their metrics.
type GenerationStore struct {
	db *sql.DB
}

// NewGenerationStore creates the generation tables on db. The scenarios
// table must already exist.
func NewGenerationStore(db *sql.DB) (*GenerationStore, error) {
	if _, err := db.Exec(generationsSchema); err != nil {
		return nil, fmt.Errorf("generations schema: %w", err)
	}
	return &GenerationStore{db: db}, nil
}

// #endregion

// #region create

// Create stores a generation and its metrics in one transaction.
func (s *GenerationStore) Create(g Generation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var maxTokens any
	if g.Sampling.MaxTokens > 0 {
		maxTokens = g.Sampling.MaxTokens
	}
	var seed any
	if g.Sampling.Seed != nil {
		seed = *g.Sampling.Seed
	}
	_, err = tx.Exec(`
		INSERT INTO generations
		(id, scenario_id, strategy_type, model_name, temperature, top_p, max_tokens, seed,
		 prompt_text, output_text, word_count, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ScenarioID, string(g.Strategy), g.Sampling.Model,
		float64(g.Sampling.Temperature), float64(g.Sampling.TopP), maxTokens, seed,
		g.Prompt, g.Output, g.WordCount, g.LatencyMS,
		g.CreatedAt.UTC().Format(state.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}

	var distance any
	if g.Metrics.SemanticDistance != nil {
		distance = *g.Metrics.SemanticDistance
	}
	var baseline any
	if g.BaselineGenerationID != nil {
		baseline = *g.BaselineGenerationID
	}
	violation := 0
	if g.Metrics.ViolationFlag {
		violation = 1
	}
	_, err = tx.Exec(`
		INSERT INTO generation_metrics
		(generation_id, semantic_distance, alignment_score, sentiment_score, violation_flag, baseline_generation_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, distance, g.Metrics.AlignmentScore, g.Metrics.SentimentScore, violation, baseline,
	)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return tx.Commit()
}

// #endregion

// #region read

const selectGeneration = `
SELECT g.id, g.scenario_id, g.strategy_type, g.model_name, g.temperature, g.top_p,
       g.max_tokens, g.seed, g.prompt_text, g.output_text, g.word_count, g.latency_ms, g.created_at,
       m.semantic_distance, m.alignment_score, m.sentiment_score, m.violation_flag, m.baseline_generation_id
FROM generations g
JOIN generation_metrics m ON m.generation_id = g.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (Generation, error) {
	var g Generation
	var strategy, created string
	var temperature, topP float64
	var maxTokens, seed sql.NullInt64
	var distance sql.NullFloat64
	var baseline sql.NullString
	var violation int
	err := row.Scan(&g.ID, &g.ScenarioID, &strategy, &g.Sampling.Model, &temperature, &topP,
		&maxTokens, &seed, &g.Prompt, &g.Output, &g.WordCount, &g.LatencyMS, &created,
		&distance, &g.Metrics.AlignmentScore, &g.Metrics.SentimentScore, &violation, &baseline)
	if err != nil {
		return Generation{}, err
	}
	g.Strategy = StrategyID(strategy)
	g.Sampling.Temperature = float32(temperature)
	g.Sampling.TopP = float32(topP)
	if maxTokens.Valid {
		g.Sampling.MaxTokens = int(maxTokens.Int64)
	}
	if seed.Valid {
		v := int(seed.Int64)
		g.Sampling.Seed = &v
	}
	g.Metrics.WordCount = g.WordCount
	if distance.Valid {
		d := distance.Float64
		g.Metrics.SemanticDistance = &d
	}
	g.Metrics.ViolationFlag = violation != 0
	if baseline.Valid {
		b := baseline.String
		g.BaselineGenerationID = &b
	}
	g.CreatedAt, _ = time.Parse(state.TimeLayout, created)
	return g, nil
}

// Get returns one generation, or state.ErrNotFound.
func (s *GenerationStore) Get(id string) (Generation, error) {
	g, err := scanGeneration(s.db.QueryRow(selectGeneration+" WHERE g.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, fmt.Errorf("generation %s: %w", id, state.ErrNotFound)
	}
	return g, err
}

// ForScenario returns a scenario's generations in strategy run order.
func (s *GenerationStore) ForScenario(scenarioID string) ([]Generation, error) {
	rows, err := s.db.Query(selectGeneration+" WHERE g.scenario_id = ? ORDER BY g.created_at, g.rowid", scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// LookupGeneration implements eval.GenerationLookup.
func (s *GenerationStore) LookupGeneration(id string) (eval.GenerationRef, error) {
	var ref eval.GenerationRef
	var phase sql.NullString
	err := s.db.QueryRow(`
		SELECT g.id, g.scenario_id, g.strategy_type, g.model_name, g.output_text, sc.phase
		FROM generations g
		LEFT JOIN scenarios sc ON sc.id = g.scenario_id
		WHERE g.id = ?`, id,
	).Scan(&ref.ID, &ref.ScenarioID, &ref.Strategy, &ref.Model, &ref.Output, &phase)
	if errors.Is(err, sql.ErrNoRows) {
		return eval.GenerationRef{}, state.ErrNotFound
	}
	if err != nil {
		return eval.GenerationRef{}, err
	}
	ref.Phase = state.Phase(phase.String)
	return ref, nil
}

// #endregion
