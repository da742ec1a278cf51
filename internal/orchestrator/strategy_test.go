package orchestrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

func testInput() state.ScenarioInput {
	in := state.ScenarioInput{
		Phase:  state.PhaseLuteal,
		Mood:   state.MoodIrritable,
		Energy: 4,
		Sleep:  6,
		Stress: 7,
	}
	in.Symptoms.Cramps = true
	in.Symptoms.Bloating = true
	return in
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    StrategyID
		wantErr bool
	}{
		{"Generic", StrategyGeneric, false},
		{"phase-aware", StrategyPhaseAware, false},
		{" Phase + Memory-Aware ", StrategyMemoryAware, false},
		{"PHASE + STATE VECTOR", StrategyStateVector, false},
		{"default", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidStrategy) {
				t.Errorf("ParseStrategy(%q): expected ErrInvalidStrategy, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSymptomList(t *testing.T) {
	var s state.Symptoms
	if got := SymptomList(s); got != "none" {
		t.Fatalf("empty: got %q", got)
	}

	s.Set("fatigue", 1)
	s.Set("cramps", 1)
	s.Set("hot_flashes", 2)
	s.Set("acne", 0)
	if got, want := SymptomList(s), "cramps(1), fatigue(1), hot_flashes(2)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildPrompt_Generic(t *testing.T) {
	p, err := BuildPrompt(StrategyGeneric, testInput(), state.StateVector{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "System: You are a general wellness assistant.\n" +
		"User: User reports:\n" +
		"Mood: Irritable\n" +
		"Energy: 4/10\n" +
		"Sleep: 6/10\n" +
		"Symptoms: cramps(1), bloating(1)\n" +
		"Provide helpful advice."
	if p != want {
		t.Fatalf("got:\n%s\nwant:\n%s", p, want)
	}
	if strings.Contains(p, "Luteal") {
		t.Fatal("generic prompt must not mention the phase")
	}
}

func TestBuildPrompt_PhaseAware(t *testing.T) {
	p, err := BuildPrompt(StrategyPhaseAware, testInput(), state.StateVector{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Ground recommendations in hormonal physiology.",
		"User: Menstrual Phase: Luteal\nMood: Irritable\n",
		"Explain biological context briefly",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("missing %q in:\n%s", want, p)
		}
	}
}

func TestBuildPrompt_StateVectorEmbedsFormattedVector(t *testing.T) {
	vec := state.StateVector{
		EstrogenInfluence:        0.35,
		ProgesteroneInfluence:    0.8,
		EnergyStability:          0.4626,
		EmotionalVolatility:      0.6,
		InflammationLikelihood:   0.5,
		GastrointestinalDistress: 0.25,
	}
	p, err := BuildPrompt(StrategyStateVector, testInput(), vec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p, "Biological State Profile:\n"+state.Format(vec)+"\nProvide:\n1.") {
		t.Fatalf("formatted vector not embedded:\n%s", p)
	}
	if !strings.Contains(p, "Energy Stability: 0.463") {
		t.Fatalf("expected 3-decimal values:\n%s", p)
	}
	if strings.Contains(p, "Mood:") {
		t.Fatal("state vector prompt carries the profile, not the raw report")
	}
}

func TestBuildPrompt_MemoryAware(t *testing.T) {
	in := testInput()
	day := 24
	in.CycleDay = &day
	p, err := BuildPrompt(StrategyMemoryAware, in, state.StateVector{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Current State:\nMood: Irritable",
		"Cycle Day: 24 of 28\n",
		"Historical Pattern: " + fallbackHistory + "\n",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("missing %q in:\n%s", want, p)
		}
	}

	in.MemoryText = "  Cramps hit hardest on day 1.  "
	p, _ = BuildPrompt(StrategyMemoryAware, in, state.StateVector{}, nil)
	if !strings.Contains(p, "Historical Pattern: Cramps hit hardest on day 1.\n") {
		t.Errorf("memory text not used:\n%s", p)
	}
}

func TestBuildPrompt_UnknownStrategy(t *testing.T) {
	if _, err := BuildPrompt("nope", testInput(), state.StateVector{}, nil); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("expected ErrInvalidStrategy, got %v", err)
	}
}

func TestHistorySummary(t *testing.T) {
	in := testInput()
	rec := func(names ...string) state.ScenarioRecord {
		var r state.ScenarioRecord
		for _, n := range names {
			r.Input.Symptoms.Set(n, 1)
		}
		return r
	}

	tests := []struct {
		name    string
		history []state.ScenarioRecord
		want    string
	}{
		{"none", nil, fallbackHistory},
		{"no-recurrence", []state.ScenarioRecord{rec("cramps"), rec("fatigue")},
			"Across 2 earlier Luteal reports no symptom recurred."},
		{"recurring", []state.ScenarioRecord{rec("cramps", "fatigue"), rec("cramps", "fatigue"), rec("cramps", "anxiety")},
			"Across 3 earlier Luteal reports, recurring symptoms: cramps (3 of 3), fatigue (2 of 3)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HistorySummary(in, tt.history); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
