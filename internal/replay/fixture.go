package replay

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture file.
type Fixture struct {
	Description string        `yaml:"description" json:"description"`
	Tolerance   float64       `yaml:"tolerance" json:"tolerance"`
	Cases       []FixtureCase `yaml:"cases" json:"cases"`
}

// FixtureCase is one scenario with the vector it must produce.
type FixtureCase struct {
	ID       string              `yaml:"id" json:"id"`
	Input    state.ScenarioInput `yaml:"input" json:"input"`
	Symptoms map[string]int      `yaml:"symptoms" json:"symptoms"`
	Expected *FixtureVector      `yaml:"expected" json:"expected"`
	Basis    state.HormoneBasis  `yaml:"basis" json:"basis"`
}

// FixtureVector mirrors state.StateVector with file-friendly keys.
type FixtureVector struct {
	Estrogen     float64 `yaml:"estrogen_influence" json:"estrogen_influence"`
	Progesterone float64 `yaml:"progesterone_influence" json:"progesterone_influence"`
	Energy       float64 `yaml:"energy_stability" json:"energy_stability"`
	Volatility   float64 `yaml:"emotional_volatility" json:"emotional_volatility"`
	Inflammation float64 `yaml:"inflammation_likelihood" json:"inflammation_likelihood"`
	GI           float64 `yaml:"gastrointestinal_distress" json:"gastrointestinal_distress"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a YAML fixture, or JSON when the file ends in .json.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a replay Case. Symptoms nested under
// input are kept and the sibling symptoms map is applied over them.
func (fc *FixtureCase) ToCase() Case {
	in := fc.Input
	in.Symptoms.Extra = maps.Clone(in.Symptoms.Extra)
	for name, v := range fc.Symptoms {
		in.Symptoms.Set(name, v)
	}
	c := Case{ID: fc.ID, Input: in, Basis: fc.Basis}
	if fc.Expected != nil {
		v := fc.Expected.ToVector()
		c.Expected = &v
	}
	return c
}

// ToVector converts to a domain StateVector.
func (fv FixtureVector) ToVector() state.StateVector {
	return state.StateVector{
		EstrogenInfluence:        fv.Estrogen,
		ProgesteroneInfluence:    fv.Progesterone,
		EnergyStability:          fv.Energy,
		EmotionalVolatility:      fv.Volatility,
		InflammationLikelihood:   fv.Inflammation,
		GastrointestinalDistress: fv.GI,
	}
}

// ReplayCases converts every fixture case.
func (f *Fixture) ReplayCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase()
	}
	return out
}

// Config returns the replay config the fixture asks for.
func (f *Fixture) Config() ReplayConfig {
	cfg := DefaultReplayConfig()
	if f.Tolerance > 0 {
		cfg.Tolerance = f.Tolerance
	}
	return cfg
}

// #endregion fixture-loader

// #region fixture-writer

// CaseFromRecord pins a stored scenario's vector as a fixture case.
func CaseFromRecord(rec state.ScenarioRecord) FixtureCase {
	in := rec.Input
	in.Symptoms = state.Symptoms{}
	var symptoms map[string]int
	if flagged := rec.Input.Symptoms.Flagged(); len(flagged) > 0 {
		symptoms = make(map[string]int, len(flagged))
		full := rec.Input.Symptoms.Map()
		for _, name := range flagged {
			symptoms[name] = full[name]
		}
	}
	v := rec.Vector
	return FixtureCase{
		ID:       rec.ID,
		Input:    in,
		Symptoms: symptoms,
		Expected: &FixtureVector{
			Estrogen:     v.EstrogenInfluence,
			Progesterone: v.ProgesteroneInfluence,
			Energy:       v.EnergyStability,
			Volatility:   v.EmotionalVolatility,
			Inflammation: v.InflammationLikelihood,
			GI:           v.GastrointestinalDistress,
		},
		Basis: rec.Basis,
	}
}

// WriteFixture writes f as YAML, or JSON when path ends in .json.
func WriteFixture(path string, f *Fixture) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-writer
