package main

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region tokenize

// splitAssignments splits a line into key=value pairs. Values may be
// double-quoted to keep spaces.
func splitAssignments(line string) ([][2]string, error) {
	var (
		out     [][2]string
		cur     strings.Builder
		inQuote bool
		tokens  []string
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}

	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", tok)
		}
		out = append(out, [2]string{strings.ToLower(k), v})
	}
	return out, nil
}

// #endregion tokenize

// #region apply

// applyLine sets every key=value pair on the draft. Nothing is applied when
// any pair is invalid.
func applyLine(draft *state.ScenarioInput, line string) error {
	pairs, err := splitAssignments(line)
	if err != nil {
		return err
	}
	next := *draft
	next.Symptoms = copySymptoms(draft.Symptoms)
	var errs []error
	for _, p := range pairs {
		if err := apply(&next, p[0], p[1]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	*draft = next
	return nil
}

func apply(in *state.ScenarioInput, key, value string) error {
	switch key {
	case "phase":
		if value == "" || value == "none" {
			in.Phase = ""
			return nil
		}
		p, err := state.ParsePhase(value)
		if err != nil {
			return err
		}
		in.Phase = p
	case "mood":
		m, err := state.ParseMood(value)
		if err != nil {
			return err
		}
		in.Mood = m
	case "energy":
		return setInt(&in.Energy, key, value)
	case "sleep":
		return setInt(&in.Sleep, key, value)
	case "stress":
		return setInt(&in.Stress, key, value)
	case "severity", "symptom_severity":
		return setInt(&in.SymptomSeverity, key, value)
	case "day", "cycle_day":
		if value == "" || value == "none" {
			in.CycleDay = nil
			return nil
		}
		var d int
		if err := setInt(&d, key, value); err != nil {
			return err
		}
		in.CycleDay = &d
	case "length", "cycle_length":
		return setInt(&in.CycleLength, key, value)
	case "memory":
		in.MemoryText = value
	case "sleep_avg":
		return setFloat(&in.PreviousSleepAvg, key, value)
	case "stress_avg":
		return setFloat(&in.PreviousStressAvg, key, value)
	case "symptoms":
		return setSymptoms(&in.Symptoms, value)
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not a whole number", key, value)
	}
	*dst = n
	return nil
}

func setFloat(dst **float64, key, value string) error {
	if value == "" || value == "none" {
		*dst = nil
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", key, value)
	}
	*dst = &f
	return nil
}

// setSymptoms replaces the symptom set from "a,b,c:2". "none" clears it.
func setSymptoms(s *state.Symptoms, value string) error {
	*s = state.Symptoms{}
	if value == "" || value == "none" {
		return nil
	}
	for _, item := range strings.Split(value, ",") {
		name, count, hasCount := strings.Cut(strings.TrimSpace(item), ":")
		if name == "" {
			continue
		}
		n := 1
		if hasCount {
			v, err := strconv.Atoi(count)
			if err != nil {
				return fmt.Errorf("symptoms: %q has a bad count", item)
			}
			n = v
		}
		s.Set(strings.ToLower(name), n)
	}
	return nil
}

func copySymptoms(s state.Symptoms) state.Symptoms {
	s.Extra = maps.Clone(s.Extra)
	return s
}

// #endregion apply

// newDraft is the scenario a session starts from.
func newDraft() state.ScenarioInput {
	return state.ScenarioInput{
		Phase:  state.PhaseFollicular,
		Mood:   state.MoodNeutral,
		Energy: 5,
		Sleep:  7,
		Stress: 4,
	}
}
