package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

func TestSplitAssignments(t *testing.T) {
	tests := []struct {
		line    string
		want    [][2]string
		wantErr bool
	}{
		{"energy=4", [][2]string{{"energy", "4"}}, false},
		{"Phase=Luteal  mood=calm", [][2]string{{"phase", "Luteal"}, {"mood", "calm"}}, false},
		{`memory="cramps every month" day=3`, [][2]string{{"memory", "cramps every month"}, {"day", "3"}}, false},
		{"day=", [][2]string{{"day", ""}}, false},
		{"energy", nil, true},
		{"=4", nil, true},
		{`memory="open`, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := splitAssignments(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("pair %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestApplyLine(t *testing.T) {
	d := newDraft()
	line := `phase=luteal mood=severe_mood_swings energy=2 sleep=3 stress=9 severity=3 day=21 length=30 symptoms=cramps,anxiety,hot_flashes:2 sleep_avg=6.5 memory="bad week"`
	if err := applyLine(&d, line); err != nil {
		t.Fatalf("applyLine: %v", err)
	}

	if d.Phase != state.PhaseLuteal || d.Mood != state.MoodSevereMoodSwings {
		t.Errorf("enumerations not parsed: %q %q", d.Phase, d.Mood)
	}
	if d.Energy != 2 || d.Sleep != 3 || d.Stress != 9 || d.SymptomSeverity != 3 {
		t.Errorf("scales not parsed: %+v", d)
	}
	if d.CycleDay == nil || *d.CycleDay != 21 || d.CycleLength != 30 {
		t.Errorf("cycle fields not parsed: %v %d", d.CycleDay, d.CycleLength)
	}
	if !d.Symptoms.Has(state.SymptomCramps) || !d.Symptoms.Has(state.SymptomAnxiety) {
		t.Errorf("symptoms not set: %+v", d.Symptoms)
	}
	if d.Symptoms.Extra["hot_flashes"] != 2 {
		t.Errorf("extra symptom not kept: %v", d.Symptoms.Extra)
	}
	if d.PreviousSleepAvg == nil || *d.PreviousSleepAvg != 6.5 {
		t.Errorf("sleep_avg not parsed: %v", d.PreviousSleepAvg)
	}
	if d.MemoryText != "bad week" {
		t.Errorf("memory not parsed: %q", d.MemoryText)
	}

	if err := applyLine(&d, "day=none symptoms=none phase=none"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if d.CycleDay != nil || d.Phase != "" || len(d.Symptoms.Flagged()) != 0 {
		t.Errorf("fields not cleared: %+v", d)
	}
}

func TestApplyLine_AllOrNothing(t *testing.T) {
	d := newDraft()
	err := applyLine(&d, "energy=9 mood=grumpy weather=rain")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, state.ErrInvalidEnumeration) {
		t.Errorf("expected ErrInvalidEnumeration in %v", err)
	}
	if !strings.Contains(err.Error(), "weather") {
		t.Errorf("expected unknown field reported, got %v", err)
	}
	if d.Energy != 5 {
		t.Errorf("draft changed on error: energy=%d", d.Energy)
	}
}

func TestApplyLine_DoesNotShareExtras(t *testing.T) {
	d := newDraft()
	if err := applyLine(&d, "symptoms=hot_flashes:2"); err != nil {
		t.Fatal(err)
	}
	before := d.Symptoms.Extra
	if err := applyLine(&d, "symptoms=hot_flashes:5 mood=nope"); err == nil {
		t.Fatal("expected error")
	}
	if before["hot_flashes"] != 2 || d.Symptoms.Extra["hot_flashes"] != 2 {
		t.Errorf("failed line leaked into draft: %v", d.Symptoms.Extra)
	}
}

func TestSession_ShowAndPrompt(t *testing.T) {
	var buf bytes.Buffer
	s := &session{draft: newDraft(), out: &buf}

	if err := s.handle("symptoms=cramps"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Symptoms: Cramps", "Estrogen Influence", "basis=phase"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := s.handle("/prompt generic"); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if !strings.Contains(buf.String(), "--- Generic ---") {
		t.Errorf("unexpected prompt output:\n%s", buf.String())
	}

	if err := s.handle("/generate"); err == nil {
		t.Error("expected error without generator")
	}
	if err := s.handle("/bogus"); err == nil {
		t.Error("expected error for unknown command")
	}
}
