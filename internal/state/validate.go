package state

import (
	"errors"
	"fmt"
	"strings"
)

// #region parse

// ParsePhase matches a phase label case-insensitively.
func ParsePhase(s string) (Phase, error) {
	t := strings.TrimSpace(s)
	for _, p := range Phases {
		if strings.EqualFold(t, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("phase %q: %w", s, ErrInvalidEnumeration)
}

// ParseMood matches a mood label case-insensitively. Underscores are read
// as spaces so "severe_mood_swings" works from query strings and the REPL.
func ParseMood(s string) (Mood, error) {
	t := strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	for _, m := range Moods {
		if strings.EqualFold(t, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("mood %q: %w", s, ErrInvalidEnumeration)
}

// #endregion parse

// #region validate

// Validate checks every field domain and returns all violations joined.
// Compute does not call it; request handlers do.
func Validate(in ScenarioInput) error {
	var errs []error
	if !in.Phase.Valid() {
		errs = append(errs, fmt.Errorf("phase %q: %w", in.Phase, ErrInvalidEnumeration))
	}
	if !in.Mood.Valid() {
		errs = append(errs, fmt.Errorf("mood %q: %w", in.Mood, ErrInvalidEnumeration))
	}
	errs = append(errs,
		checkRange("energy", in.Energy, 1, 10),
		checkRange("sleep", in.Sleep, 1, 10),
		checkRange("stress", in.Stress, 1, 10),
		checkRange("symptom_severity", in.SymptomSeverity, 0, 3),
	)
	if in.CycleDay != nil {
		errs = append(errs, checkRange("cycleDay", *in.CycleDay, 1, 28))
	}
	if in.CycleLength != 0 {
		errs = append(errs, checkRange("cycleLength", in.CycleLength, 21, 45))
	}
	return errors.Join(errs...)
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s=%d not in [%d, %d]: %w", name, v, lo, hi, ErrOutOfRange)
	}
	return nil
}

// #endregion validate
