package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id                  TEXT PRIMARY KEY,
	phase               TEXT NOT NULL,
	mood                TEXT NOT NULL,
	energy              INTEGER NOT NULL,
	sleep               INTEGER NOT NULL,
	stress              INTEGER NOT NULL,
	symptom_severity    INTEGER NOT NULL DEFAULT 0,
	symptoms_json       TEXT NOT NULL,
	cycle_day           INTEGER,
	cycle_length        INTEGER NOT NULL DEFAULT 28,
	previous_sleep_avg  REAL,
	previous_stress_avg REAL,
	memory_text         TEXT,
	created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scenarios_phase ON scenarios(phase, created_at);

CREATE TABLE IF NOT EXISTS state_vectors (
	scenario_id               TEXT PRIMARY KEY,
	estrogen_influence        REAL NOT NULL,
	progesterone_influence    REAL NOT NULL,
	energy_stability          REAL NOT NULL,
	emotional_volatility      REAL NOT NULL,
	inflammation_likelihood   REAL NOT NULL,
	gastrointestinal_distress REAL NOT NULL,
	hormone_basis             TEXT NOT NULL,
	formula_version           TEXT NOT NULL,
	FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
);
`

// #endregion schema

// TimeLayout is a fixed-width RFC 3339 layout so stored timestamps sort as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct

// Store persists scenarios and their computed vectors in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: writes are serialized and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the stores that share it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region create

// CreateScenario stores the input and its computation in one transaction.
func (s *Store) CreateScenario(in ScenarioInput, c Computation) (ScenarioRecord, error) {
	rec := ScenarioRecord{
		ID:             uuid.New().String(),
		Input:          in,
		Vector:         c.Vector,
		Basis:          c.Basis,
		FormulaVersion: FormulaVersion,
		CreatedAt:      time.Now().UTC(),
	}
	rec.Input.CycleLength = in.EffectiveCycleLength()

	symJSON, err := json.Marshal(in.Symptoms)
	if err != nil {
		return ScenarioRecord{}, fmt.Errorf("marshal symptoms: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return ScenarioRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO scenarios (id, phase, mood, energy, sleep, stress, symptom_severity, symptoms_json,
		  cycle_day, cycle_length, previous_sleep_avg, previous_stress_avg, memory_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(in.Phase), string(in.Mood), in.Energy, in.Sleep, in.Stress, in.SymptomSeverity,
		string(symJSON), intPtr(in.CycleDay), rec.Input.CycleLength,
		floatPtr(in.PreviousSleepAvg), floatPtr(in.PreviousStressAvg), nullIfEmpty(in.MemoryText),
		rec.CreatedAt.Format(TimeLayout),
	)
	if err != nil {
		return ScenarioRecord{}, fmt.Errorf("insert scenario: %w", err)
	}

	v := c.Vector
	_, err = tx.Exec(
		`INSERT INTO state_vectors (scenario_id, estrogen_influence, progesterone_influence, energy_stability,
		  emotional_volatility, inflammation_likelihood, gastrointestinal_distress, hormone_basis, formula_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, v.EstrogenInfluence, v.ProgesteroneInfluence, v.EnergyStability,
		v.EmotionalVolatility, v.InflammationLikelihood, v.GastrointestinalDistress,
		string(c.Basis), FormulaVersion,
	)
	if err != nil {
		return ScenarioRecord{}, fmt.Errorf("insert vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ScenarioRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion create

// #region read

const selectScenario = `
SELECT s.id, s.phase, s.mood, s.energy, s.sleep, s.stress, s.symptom_severity, s.symptoms_json,
       s.cycle_day, s.cycle_length, s.previous_sleep_avg, s.previous_stress_avg, s.memory_text, s.created_at,
       v.estrogen_influence, v.progesterone_influence, v.energy_stability, v.emotional_volatility,
       v.inflammation_likelihood, v.gastrointestinal_distress, v.hormone_basis, v.formula_version
FROM scenarios s
JOIN state_vectors v ON v.scenario_id = s.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (ScenarioRecord, error) {
	var rec ScenarioRecord
	var phase, mood, symJSON, createdStr, basis string
	var cycleDay sql.NullInt64
	var prevSleep, prevStress sql.NullFloat64
	var memory sql.NullString

	err := row.Scan(
		&rec.ID, &phase, &mood, &rec.Input.Energy, &rec.Input.Sleep, &rec.Input.Stress,
		&rec.Input.SymptomSeverity, &symJSON, &cycleDay, &rec.Input.CycleLength,
		&prevSleep, &prevStress, &memory, &createdStr,
		&rec.Vector.EstrogenInfluence, &rec.Vector.ProgesteroneInfluence, &rec.Vector.EnergyStability,
		&rec.Vector.EmotionalVolatility, &rec.Vector.InflammationLikelihood, &rec.Vector.GastrointestinalDistress,
		&basis, &rec.FormulaVersion,
	)
	if err != nil {
		return ScenarioRecord{}, err
	}

	rec.Input.Phase = Phase(phase)
	rec.Input.Mood = Mood(mood)
	rec.Basis = HormoneBasis(basis)
	if err := json.Unmarshal([]byte(symJSON), &rec.Input.Symptoms); err != nil {
		return ScenarioRecord{}, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	if cycleDay.Valid {
		d := int(cycleDay.Int64)
		rec.Input.CycleDay = &d
	}
	if prevSleep.Valid {
		rec.Input.PreviousSleepAvg = &prevSleep.Float64
	}
	if prevStress.Valid {
		rec.Input.PreviousStressAvg = &prevStress.Float64
	}
	rec.Input.MemoryText = memory.String
	rec.CreatedAt, _ = time.Parse(TimeLayout, createdStr)
	return rec, nil
}

// GetScenario retrieves a scenario by ID.
func (s *Store) GetScenario(id string) (ScenarioRecord, error) {
	rec, err := scanScenario(s.db.QueryRow(selectScenario+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ScenarioRecord{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ScenarioRecord{}, fmt.Errorf("get scenario %s: %w", id, err)
	}
	return rec, nil
}

// ListScenarios returns the most recent scenarios, newest first.
func (s *Store) ListScenarios(limit int) ([]ScenarioRecord, error) {
	return s.query(selectScenario+` ORDER BY s.created_at DESC LIMIT ?`, limit)
}

// RecentByPhase returns up to limit earlier scenarios in the same phase,
// newest first, skipping excludeID.
func (s *Store) RecentByPhase(phase Phase, excludeID string, limit int) ([]ScenarioRecord, error) {
	return s.query(selectScenario+` WHERE s.phase = ? AND s.id != ? ORDER BY s.created_at DESC LIMIT ?`,
		string(phase), excludeID, limit)
}

func (s *Store) query(q string, args ...any) ([]ScenarioRecord, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var records []ScenarioRecord
	for rows.Next() {
		rec, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion read

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// #endregion helpers
