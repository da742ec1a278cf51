package state

import "fmt"

// FormulaVersion tags persisted vectors with the formula that produced them.
const FormulaVersion = "v1"

// DefaultCycleDay is used when neither a cycle day nor a phase is known.
const DefaultCycleDay = 14

// #region compute

// Compute maps a scenario to its state vector. It reads nothing but in and
// is safe for concurrent use. Out-of-domain numbers propagate through the
// arithmetic and are clamped; only a phase or mood outside the closed set
// is an error.
func Compute(in ScenarioInput) (StateVector, error) {
	c, err := Explain(in)
	if err != nil {
		return StateVector{}, err
	}
	return c.Vector, nil
}

// Explain runs Compute and also reports the hormone basis and mood score.
func Explain(in ScenarioInput) (Computation, error) {
	if in.Phase != "" && !in.Phase.Valid() {
		return Computation{}, fmt.Errorf("phase %q: %w", in.Phase, ErrInvalidEnumeration)
	}
	mood, err := MoodScore(in)
	if err != nil {
		return Computation{}, err
	}

	e := float64(in.Energy) / 10
	s := float64(in.Sleep) / 10
	str := float64(in.Stress) / 10
	sev := float64(in.SymptomSeverity) / 3

	var estrogen, progesterone float64
	var c Computation
	switch {
	case in.CycleDay != nil:
		c.Basis = BasisCycleDay
		c.CycleDay = *in.CycleDay
		estrogen, progesterone = HormonesForDay(*in.CycleDay)
	case in.Phase != "":
		// Phase table only; the day curve is not consulted.
		c.Basis = BasisPhase
		estrogen, progesterone = HormonesForPhase(in.Phase)
	default:
		c.Basis = BasisCycleDay
		c.CycleDay = DefaultCycleDay
		estrogen, progesterone = HormonesForDay(DefaultCycleDay)
	}

	energyStability := 0.5*e + 0.3*s + 0.2*(1-str)
	volatility := 0.5*str + 0.3*sev + 0.2*mood

	inflam := countFlags(in.Symptoms,
		SymptomCramps, SymptomBackPain, SymptomJointPain, SymptomHeadache, SymptomBreastTenderness) / 5
	inflammation := 0.5*sev + 0.3*inflam + 0.2*str

	gi := countFlags(in.Symptoms, SymptomNausea, SymptomVomiting, SymptomDiarrhea, SymptomConstipation) / 4
	gastro := 0.6*gi + 0.4*sev

	c.MoodScore = mood
	c.Vector = StateVector{
		EstrogenInfluence:        Clamp(estrogen),
		ProgesteroneInfluence:    Clamp(progesterone),
		EnergyStability:          Clamp(energyStability),
		EmotionalVolatility:      Clamp(volatility),
		InflammationLikelihood:   Clamp(inflammation),
		GastrointestinalDistress: Clamp(gastro),
	}
	return c, nil
}

// #endregion compute

// #region hormones

// HormonesForDay returns (estrogen, progesterone) influence for a day of a
// 28-day cycle. Days outside 1–28 get the flat fallback (0.5, 0.2).
func HormonesForDay(d int) (estrogen, progesterone float64) {
	switch {
	case d >= 1 && d <= 4:
		estrogen = 0.2
	case d >= 5 && d <= 13:
		estrogen = 0.3 + 0.05*float64(d-5)
	case d >= 14 && d <= 16:
		estrogen = 0.9
	case d >= 17 && d <= 24:
		estrogen = 0.7
	case d >= 25 && d <= 28:
		estrogen = 0.4
	default:
		estrogen = 0.5
	}

	switch {
	case d >= 1 && d <= 13:
		progesterone = 0.2
	case d >= 14 && d <= 16:
		progesterone = 0.3
	case d >= 17 && d <= 24:
		progesterone = 0.5 + 0.05*float64(d-17)
	case d >= 25 && d <= 28:
		progesterone = 0.6
	default:
		progesterone = 0.2
	}
	return estrogen, progesterone
}

// phaseHormones is the coarse fallback used when no cycle day is reported.
var phaseHormones = map[Phase][2]float64{
	PhaseMenstrual:  {0.2, 0.2},
	PhaseFollicular: {0.6, 0.3},
	PhaseOvulatory:  {0.9, 0.2},
	PhaseLuteal:     {0.5, 0.8},
}

// HormonesForPhase returns the per-phase constants. Callers must check
// Phase.Valid first; an unknown phase yields zeros.
func HormonesForPhase(p Phase) (estrogen, progesterone float64) {
	h := phaseHormones[p]
	return h[0], h[1]
}

// #endregion hormones

// #region mood

var moodBase = map[Mood]float64{
	MoodCalm: 0.2,
	// Neutral scores the same as Calm.
	MoodNeutral:          0.2,
	MoodIrritable:        0.6,
	MoodSevereMoodSwings: 1.0,
}

// symptom floors applied to the mood score; each only ever raises it.
var moodFloors = []struct {
	symptom Symptom
	floor   float64
}{
	{SymptomMoodSwings, 0.8},
	{SymptomAnxiety, 0.7},
	{SymptomLowMotivation, 0.5},
}

// MoodScore returns the mood contribution to emotional volatility before
// blending, with the emotional symptom floors applied.
func MoodScore(in ScenarioInput) (float64, error) {
	score, ok := moodBase[in.Mood]
	if !ok {
		return 0, fmt.Errorf("mood %q: %w", in.Mood, ErrInvalidEnumeration)
	}
	for _, f := range moodFloors {
		if in.Symptoms.Has(f.symptom) && score < f.floor {
			score = f.floor
		}
	}
	return score, nil
}

// #endregion mood

// #region helpers

// Clamp limits x to [0, 1].
func Clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func countFlags(s Symptoms, names ...Symptom) float64 {
	var n int
	for _, name := range names {
		if s.Has(name) {
			n++
		}
	}
	return float64(n)
}

// #endregion helpers
