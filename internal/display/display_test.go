package display

import (
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

func TestBar(t *testing.T) {
	tests := []struct {
		value float64
		width int
		want  string
	}{
		{0, 4, "░░░░"},
		{1, 4, "████"},
		{0.5, 4, "██░░"},
		{0.8, 10, "████████░░"},
		{1.7, 4, "████"},
		{-0.2, 4, "░░░░"},
		{math.NaN(), 4, "░░░░"},
		{math.Inf(1), 4, "████"},
		{math.Inf(-1), 4, "░░░░"},
	}
	for _, tt := range tests {
		if got := Bar(tt.value, tt.width); got != tt.want {
			t.Errorf("Bar(%v, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
	if n := utf8.RuneCountInString(Bar(0.3, 0)); n != DefaultBarWidth {
		t.Errorf("default width: got %d cells", n)
	}
}

func TestBars(t *testing.T) {
	v := state.StateVector{
		EstrogenInfluence:        0.8,
		ProgesteroneInfluence:    0.2,
		EnergyStability:          0.5,
		EmotionalVolatility:      0,
		InflammationLikelihood:   1,
		GastrointestinalDistress: 0.25,
	}
	out := Bars(v, 10)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "Estrogen Influence         ████████░░  0.800" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[5] != "Gastrointestinal Distress  ███░░░░░░░  0.250" {
		t.Errorf("unexpected last line %q", lines[5])
	}
	// Bars start in the same column on every line.
	col := strings.Index(lines[0], "█")
	for _, l := range lines[1:] {
		i := strings.IndexAny(l, "█░")
		if i != col {
			t.Errorf("misaligned bar in %q", l)
		}
	}
}

func TestSymptomLabel(t *testing.T) {
	tests := map[string]string{
		"cramps":            "Cramps",
		"back_pain":         "Back Pain",
		"breast_tenderness": "Breast Tenderness",
		" brain_fog ":       "Brain Fog",
	}
	for in, want := range tests {
		if got := SymptomLabel(in); got != want {
			t.Errorf("SymptomLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSymptomsLine(t *testing.T) {
	var s state.Symptoms
	if got := SymptomsLine(s); got != "None" {
		t.Fatalf("empty: got %q", got)
	}
	s.Set("low_motivation", 1)
	s.Set("headache", 1)
	s.Set("hot_flashes", 3)
	if got, want := SymptomsLine(s), "Headache, Low Motivation, Hot Flashes (3)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSymptomsLine_Concurrent(t *testing.T) {
	var s state.Symptoms
	s.Set("back_pain", 1)
	s.Set("breast_tenderness", 1)
	s.Set("brain_fog", 2)
	want := SymptomsLine(s)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if got := SymptomsLine(s); got != want {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("Rest and hydrate", 6); got != "Rest …" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("🇫🇷🇫🇷🇫🇷", 2); got != "🇫🇷…" {
		t.Errorf("flags must stay whole, got %q", got)
	}
}
