package state

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// #region errors

var (
	// ErrInvalidEnumeration marks a phase or mood outside the closed set.
	ErrInvalidEnumeration = errors.New("invalid enumeration")
	// ErrOutOfRange marks a numeric scenario field outside its domain.
	ErrOutOfRange = errors.New("value out of range")
	// ErrNotFound is returned by store lookups with no matching row.
	ErrNotFound = errors.New("not found")
)

// #endregion errors

// #region phase

// Phase is the coarse menstrual-cycle phase reported by the user.
type Phase string

const (
	PhaseMenstrual  Phase = "Menstrual"
	PhaseFollicular Phase = "Follicular"
	PhaseOvulatory  Phase = "Ovulatory"
	PhaseLuteal     Phase = "Luteal"
)

// Phases lists the phases in cycle order.
var Phases = []Phase{PhaseMenstrual, PhaseFollicular, PhaseOvulatory, PhaseLuteal}

// Valid reports whether p is one of the four phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseMenstrual, PhaseFollicular, PhaseOvulatory, PhaseLuteal:
		return true
	}
	return false
}

// #endregion phase

// #region mood

// Mood is the self-reported emotional state.
type Mood string

const (
	MoodCalm             Mood = "Calm"
	MoodNeutral          Mood = "Neutral"
	MoodIrritable        Mood = "Irritable"
	MoodSevereMoodSwings Mood = "Severe mood swings"
)

// Moods lists the moods from least to most volatile.
var Moods = []Mood{MoodCalm, MoodNeutral, MoodIrritable, MoodSevereMoodSwings}

// Valid reports whether m is one of the four moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodCalm, MoodNeutral, MoodIrritable, MoodSevereMoodSwings:
		return true
	}
	return false
}

// #endregion mood

// #region symptoms

// Symptom is the wire name of a checklist symptom.
type Symptom string

const (
	// Inflammatory / pain
	SymptomCramps           Symptom = "cramps"
	SymptomBackPain         Symptom = "back_pain"
	SymptomHeadache         Symptom = "headache"
	SymptomJointPain        Symptom = "joint_pain"
	SymptomBreastTenderness Symptom = "breast_tenderness"

	// Gastrointestinal
	SymptomNausea       Symptom = "nausea"
	SymptomVomiting     Symptom = "vomiting"
	SymptomBloating     Symptom = "bloating"
	SymptomDiarrhea     Symptom = "diarrhea"
	SymptomConstipation Symptom = "constipation"

	// Fatigue / cognitive
	SymptomFatigue   Symptom = "fatigue"
	SymptomDizziness Symptom = "dizziness"
	SymptomBrainFog  Symptom = "brain_fog"

	// Emotional
	SymptomMoodSwings    Symptom = "mood_swings"
	SymptomAnxiety       Symptom = "anxiety"
	SymptomIrritability  Symptom = "irritability"
	SymptomLowMotivation Symptom = "low_motivation"
)

// KnownSymptoms is the canonical checklist order.
var KnownSymptoms = []Symptom{
	SymptomCramps, SymptomBackPain, SymptomHeadache, SymptomJointPain, SymptomBreastTenderness,
	SymptomNausea, SymptomVomiting, SymptomBloating, SymptomDiarrhea, SymptomConstipation,
	SymptomFatigue, SymptomDizziness, SymptomBrainFog,
	SymptomMoodSwings, SymptomAnxiety, SymptomIrritability, SymptomLowMotivation,
}

// Symptoms holds the checklist as named flags. Extra keeps unknown keys
// from newer clients; they are stored and echoed but never scored.
type Symptoms struct {
	Cramps           bool
	BackPain         bool
	Headache         bool
	JointPain        bool
	BreastTenderness bool

	Nausea       bool
	Vomiting     bool
	Bloating     bool
	Diarrhea     bool
	Constipation bool

	Fatigue   bool
	Dizziness bool
	BrainFog  bool

	MoodSwings    bool
	Anxiety       bool
	Irritability  bool
	LowMotivation bool

	Extra map[string]int
}

func (s *Symptoms) flag(name Symptom) *bool {
	switch name {
	case SymptomCramps:
		return &s.Cramps
	case SymptomBackPain:
		return &s.BackPain
	case SymptomHeadache:
		return &s.Headache
	case SymptomJointPain:
		return &s.JointPain
	case SymptomBreastTenderness:
		return &s.BreastTenderness
	case SymptomNausea:
		return &s.Nausea
	case SymptomVomiting:
		return &s.Vomiting
	case SymptomBloating:
		return &s.Bloating
	case SymptomDiarrhea:
		return &s.Diarrhea
	case SymptomConstipation:
		return &s.Constipation
	case SymptomFatigue:
		return &s.Fatigue
	case SymptomDizziness:
		return &s.Dizziness
	case SymptomBrainFog:
		return &s.BrainFog
	case SymptomMoodSwings:
		return &s.MoodSwings
	case SymptomAnxiety:
		return &s.Anxiety
	case SymptomIrritability:
		return &s.Irritability
	case SymptomLowMotivation:
		return &s.LowMotivation
	}
	return nil
}

// Has reports whether a known symptom is flagged. Unknown names report false.
func (s Symptoms) Has(name Symptom) bool {
	if f := s.flag(name); f != nil {
		return *f
	}
	return false
}

// Set flags a symptom. Any value above zero counts as present for known
// symptoms; unknown names go to Extra with their raw value.
func (s *Symptoms) Set(name string, value int) {
	if f := s.flag(Symptom(name)); f != nil {
		*f = value > 0
		return
	}
	if s.Extra == nil {
		s.Extra = make(map[string]int)
	}
	s.Extra[name] = value
}

// SymptomsFromMap builds Symptoms from the flat wire map.
func SymptomsFromMap(m map[string]int) Symptoms {
	var s Symptoms
	for k, v := range m {
		s.Set(k, v)
	}
	return s
}

// Map returns the flat wire form: every known symptom as 0/1 plus extras.
func (s Symptoms) Map() map[string]int {
	m := make(map[string]int, len(KnownSymptoms)+len(s.Extra))
	for _, name := range KnownSymptoms {
		v := 0
		if s.Has(name) {
			v = 1
		}
		m[string(name)] = v
	}
	for k, v := range s.Extra {
		m[k] = v
	}
	return m
}

// Flagged returns the names of present symptoms: known ones in checklist
// order, then extras with a positive value sorted by name.
func (s Symptoms) Flagged() []string {
	var out []string
	for _, name := range KnownSymptoms {
		if s.Has(name) {
			out = append(out, string(name))
		}
	}
	var extras []string
	for k, v := range s.Extra {
		if v > 0 {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}

// MarshalJSON encodes the flat map form.
func (s Symptoms) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON accepts the flat map form. Boolean values are tolerated.
func (s *Symptoms) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Symptoms{}
	for k, v := range raw {
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			s.Set(k, int(n))
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		if b {
			s.Set(k, 1)
		} else {
			s.Set(k, 0)
		}
	}
	return nil
}

// #endregion symptoms

// #region scenario-input

// ScenarioInput is one self-report submitted for analysis.
type ScenarioInput struct {
	Phase           Phase    `json:"phase" yaml:"phase"`
	Mood            Mood     `json:"mood" yaml:"mood"`
	Energy          int      `json:"energy" yaml:"energy"`
	Sleep           int      `json:"sleep" yaml:"sleep"`
	Stress          int      `json:"stress" yaml:"stress"`
	SymptomSeverity int      `json:"symptom_severity" yaml:"symptom_severity"`
	CycleDay        *int     `json:"cycleDay,omitempty" yaml:"cycle_day,omitempty"`
	Symptoms        Symptoms `json:"symptoms" yaml:"-"`

	// Context fields. Persisted and used in prompts, never scored.
	MemoryText        string   `json:"memory_text,omitempty" yaml:"memory_text,omitempty"`
	CycleLength       int      `json:"cycleLength,omitempty" yaml:"cycle_length,omitempty"`
	PreviousSleepAvg  *float64 `json:"previousSleepAvg,omitempty" yaml:"previous_sleep_avg,omitempty"`
	PreviousStressAvg *float64 `json:"previousStressAvg,omitempty" yaml:"previous_stress_avg,omitempty"`
}

// DefaultCycleLength is assumed when a scenario omits cycleLength.
const DefaultCycleLength = 28

// EffectiveCycleLength returns CycleLength or the 28-day default.
func (in ScenarioInput) EffectiveCycleLength() int {
	if in.CycleLength <= 0 {
		return DefaultCycleLength
	}
	return in.CycleLength
}

// #endregion scenario-input

// #region state-vector

// StateVector is the normalized biological state profile. Every field is
// in [0, 1].
type StateVector struct {
	EstrogenInfluence        float64 `json:"estrogenInfluence"`
	ProgesteroneInfluence    float64 `json:"progesteroneInfluence"`
	EnergyStability          float64 `json:"energyStability"`
	EmotionalVolatility      float64 `json:"emotionalVolatility"`
	InflammationLikelihood   float64 `json:"inflammationLikelihood"`
	GastrointestinalDistress float64 `json:"gastrointestinalDistress"`
}

// HormoneBasis records which hormone model produced the influences.
type HormoneBasis string

const (
	// BasisCycleDay is the piecewise day-of-cycle curve.
	BasisCycleDay HormoneBasis = "cycle_day"
	// BasisPhase is the coarse per-phase constant table. Lower fidelity.
	BasisPhase HormoneBasis = "phase"
)

// Computation is a vector plus the intermediate values that produced it.
type Computation struct {
	Vector    StateVector  `json:"vector"`
	Basis     HormoneBasis `json:"hormone_basis"`
	CycleDay  int          `json:"cycle_day,omitempty"`
	MoodScore float64      `json:"mood_score"`
}

// #endregion state-vector

// #region scenario-record

// ScenarioRecord is a persisted scenario with the vector computed for it.
type ScenarioRecord struct {
	ID             string
	Input          ScenarioInput
	Vector         StateVector
	Basis          HormoneBasis
	FormulaVersion string
	CreatedAt      time.Time
}

// #endregion scenario-record
