package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

func TestLoadFixture_YAML(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Cases) != 6 {
		t.Fatalf("expected 6 cases, got %d", len(f.Cases))
	}
	if f.Config().Tolerance != 0.0005 {
		t.Errorf("unexpected tolerance %v", f.Config().Tolerance)
	}

	c := f.Cases[2].ToCase()
	if c.ID != "day21-calm" {
		t.Fatalf("unexpected case order: %s", c.ID)
	}
	if c.Input.CycleDay == nil || *c.Input.CycleDay != 21 {
		t.Errorf("cycle_day not decoded: %v", c.Input.CycleDay)
	}
	if !c.Input.Symptoms.Has(state.SymptomAnxiety) || !c.Input.Symptoms.Has(state.SymptomHeadache) {
		t.Errorf("symptoms not decoded: %+v", c.Input.Symptoms)
	}
	if c.Expected == nil || c.Expected.ProgesteroneInfluence != 0.7 {
		t.Errorf("expected vector not decoded: %+v", c.Expected)
	}
	if c.Basis != state.BasisCycleDay {
		t.Errorf("basis not decoded: %q", c.Basis)
	}

	if f.Cases[3].Input.Mood != state.MoodSevereMoodSwings {
		t.Errorf("multi-word mood not decoded: %q", f.Cases[3].Input.Mood)
	}
}

func TestLoadFixture_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	data := `{"cases":[{"id":"j1","input":{"phase":"Follicular","mood":"Calm","energy":5,"sleep":5,"stress":5,"symptom_severity":0}}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Config().Tolerance != DefaultTolerance {
		t.Errorf("expected default tolerance, got %v", f.Config().Tolerance)
	}
	c := f.Cases[0].ToCase()
	if c.Expected != nil {
		t.Error("expected nil vector when fixture omits it")
	}
	if c.Input.Phase != state.PhaseFollicular {
		t.Errorf("phase not decoded: %q", c.Input.Phase)
	}
}

func TestFixtureCase_MergesNestedSymptoms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.json")
	data := `{"cases":[{"id":"n1",
		"input":{"phase":"Luteal","mood":"Irritable","energy":4,"sleep":6,"stress":7,"symptom_severity":2,
			"symptoms":{"cramps":1,"bloating":1,"night_sweats":2}},
		"symptoms":{"headache":1,"bloating":0}}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	c := f.Cases[0].ToCase()
	sym := c.Input.Symptoms
	if !sym.Cramps || !sym.Headache {
		t.Errorf("nested and sibling symptoms not merged: %+v", sym)
	}
	if sym.Bloating {
		t.Error("sibling map must override the nested value")
	}
	if sym.Extra["night_sweats"] != 2 {
		t.Errorf("nested extra lost: %v", sym.Extra)
	}

	// The fixture itself stays untouched.
	again := f.Cases[0].ToCase()
	again.Input.Symptoms.Set("vertigo", 5)
	if _, ok := f.Cases[0].Input.Symptoms.Extra["vertigo"]; ok {
		t.Error("ToCase must not share the fixture's extra map")
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("cases: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteFixture_ExportedRecordsReplayClean(t *testing.T) {
	day := 21
	inputs := []state.ScenarioInput{
		{Phase: state.PhaseLuteal, Mood: state.MoodIrritable, Energy: 4, Sleep: 6, Stress: 7, SymptomSeverity: 2,
			Symptoms: state.SymptomsFromMap(map[string]int{"cramps": 1, "bloating": 1, "hot_flashes": 3})},
		{Mood: state.MoodCalm, Energy: 7, Sleep: 8, Stress: 3, CycleDay: &day},
	}

	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			f := &Fixture{Description: "exported"}
			for i, in := range inputs {
				comp, err := state.Explain(in)
				if err != nil {
					t.Fatal(err)
				}
				rec := state.ScenarioRecord{
					ID: []string{"s1", "s2"}[i], Input: in, Vector: comp.Vector,
					Basis: comp.Basis, FormulaVersion: state.FormulaVersion,
				}
				f.Cases = append(f.Cases, CaseFromRecord(rec))
			}

			path := filepath.Join(t.TempDir(), "export"+ext)
			if err := WriteFixture(path, f); err != nil {
				t.Fatalf("WriteFixture: %v", err)
			}
			loaded, err := LoadFixture(path)
			if err != nil {
				t.Fatalf("LoadFixture: %v", err)
			}
			if loaded.Cases[0].Symptoms["hot_flashes"] != 3 || loaded.Cases[0].Symptoms["cramps"] != 1 {
				t.Errorf("symptoms not exported: %v", loaded.Cases[0].Symptoms)
			}
			s := Summarize(Replay(loaded.ReplayCases(), loaded.Config()))
			if s.Matches != 2 || s.Failed() {
				t.Errorf("exported fixture did not replay clean: %+v", s)
			}
		})
	}
}
