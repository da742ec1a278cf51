package eval

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region schema
const evaluationsSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id                          TEXT PRIMARY KEY,
    generation_id               TEXT NOT NULL,
    evaluator_id                TEXT NOT NULL,
    relevance_score             INTEGER NOT NULL,
    specificity_score           INTEGER NOT NULL,
    biological_grounding_score  INTEGER NOT NULL,
    personalization_score       INTEGER NOT NULL,
    safety_score                INTEGER NOT NULL,
    created_at                  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_generation ON evaluations(generation_id);
`

// #endregion schema

// #region types

// GenerationRef is the slice of a stored generation an evaluation needs.
type GenerationRef struct {
	ID         string      `json:"id"`
	ScenarioID string      `json:"scenario_id"`
	Strategy   string      `json:"strategy_type"`
	Model      string      `json:"model_name"`
	Output     string      `json:"output_text"`
	Phase      state.Phase `json:"phase,omitempty"`
}

// GenerationLookup resolves generation ids. Implementations return
// state.ErrNotFound for unknown ids.
type GenerationLookup interface {
	LookupGeneration(id string) (GenerationRef, error)
}

// Evaluation is a persisted rating.
type Evaluation struct {
	ID string `json:"id"`
	Rating
	CreatedAt  time.Time      `json:"timestamp"`
	Generation *GenerationRef `json:"generation,omitempty"`
}

// #endregion types

// #region store

// EvaluationStore persists human ratings of generated outputs.
type EvaluationStore struct {
	db          *sql.DB
	generations GenerationLookup
}

// NewEvaluationStore creates the evaluations table on db.
func NewEvaluationStore(db *sql.DB, generations GenerationLookup) (*EvaluationStore, error) {
	if _, err := db.Exec(evaluationsSchema); err != nil {
		return nil, fmt.Errorf("evaluations schema: %w", err)
	}
	return &EvaluationStore{db: db, generations: generations}, nil
}

// Create validates r, checks the generation exists, and stores it.
func (s *EvaluationStore) Create(r Rating) (Evaluation, error) {
	if err := r.Validate(); err != nil {
		return Evaluation{}, err
	}
	ref, err := s.generations.LookupGeneration(r.GenerationID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return Evaluation{}, fmt.Errorf("generation %s: %w", r.GenerationID, state.ErrNotFound)
		}
		return Evaluation{}, fmt.Errorf("lookup generation: %w", err)
	}

	ev := Evaluation{
		ID:         uuid.New().String(),
		Rating:     r,
		CreatedAt:  time.Now().UTC(),
		Generation: &ref,
	}
	_, err = s.db.Exec(`
		INSERT INTO evaluations
		(id, generation_id, evaluator_id, relevance_score, specificity_score,
		 biological_grounding_score, personalization_score, safety_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, r.GenerationID, r.EvaluatorID,
		r.Relevance, r.Specificity, r.BiologicalGrounding, r.Personalization, r.Safety,
		ev.CreatedAt.Format(state.TimeLayout),
	)
	if err != nil {
		return Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
	}
	return ev, nil
}

// List returns evaluations newest first, each joined with its generation.
// limit <= 0 returns all.
func (s *EvaluationStore) List(limit int) ([]Evaluation, error) {
	q := `SELECT id, generation_id, evaluator_id, relevance_score, specificity_score,
		biological_grounding_score, personalization_score, safety_score, created_at
		FROM evaluations ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	var out []Evaluation
	for rows.Next() {
		var ev Evaluation
		var created string
		if err := rows.Scan(&ev.ID, &ev.GenerationID, &ev.EvaluatorID,
			&ev.Relevance, &ev.Specificity, &ev.BiologicalGrounding,
			&ev.Personalization, &ev.Safety, &created); err != nil {
			rows.Close()
			return nil, err
		}
		ev.CreatedAt, _ = time.Parse(state.TimeLayout, created)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Lookups run after the cursor is closed; the pool holds one connection.
	for i := range out {
		ref, err := s.generations.LookupGeneration(out[i].GenerationID)
		if err != nil {
			if errors.Is(err, state.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[i].Generation = &ref
	}
	return out, nil
}

// ForGeneration returns every rating of one generation.
func (s *EvaluationStore) ForGeneration(generationID string) ([]Rating, error) {
	rows, err := s.db.Query(`
		SELECT generation_id, evaluator_id, relevance_score, specificity_score,
		       biological_grounding_score, personalization_score, safety_score
		FROM evaluations WHERE generation_id = ? ORDER BY created_at`, generationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.GenerationID, &r.EvaluatorID, &r.Relevance, &r.Specificity,
			&r.BiologicalGrounding, &r.Personalization, &r.Safety); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion store
