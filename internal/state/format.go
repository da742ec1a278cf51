package state

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// #region fields

// Field is one named component of a StateVector.
type Field struct {
	Key   string
	Label string
	Value float64
}

type fieldDef struct {
	key   string
	label string
	ptr   func(*StateVector) *float64
}

var fieldDefs = []fieldDef{
	{"estrogenInfluence", "Estrogen Influence", func(v *StateVector) *float64 { return &v.EstrogenInfluence }},
	{"progesteroneInfluence", "Progesterone Influence", func(v *StateVector) *float64 { return &v.ProgesteroneInfluence }},
	{"energyStability", "Energy Stability", func(v *StateVector) *float64 { return &v.EnergyStability }},
	{"emotionalVolatility", "Emotional Volatility", func(v *StateVector) *float64 { return &v.EmotionalVolatility }},
	{"inflammationLikelihood", "Inflammation Likelihood", func(v *StateVector) *float64 { return &v.InflammationLikelihood }},
	{"gastrointestinalDistress", "Gastrointestinal Distress", func(v *StateVector) *float64 { return &v.GastrointestinalDistress }},
}

// Fields returns the vector components in display order.
func Fields(v StateVector) []Field {
	out := make([]Field, len(fieldDefs))
	for i, d := range fieldDefs {
		out[i] = Field{Key: d.key, Label: d.label, Value: *d.ptr(&v)}
	}
	return out
}

// #endregion fields

// #region format

// Format renders the vector as "Label: 0.000" lines in display order.
func Format(v StateVector) string {
	var b strings.Builder
	for _, f := range Fields(v) {
		fmt.Fprintf(&b, "%s: %.3f\n", f.Label, f.Value)
	}
	return b.String()
}

// ParseFormatted reads back text produced by Format. Lines that do not
// start with a known label are ignored; every label must appear once.
func ParseFormatted(text string) (StateVector, error) {
	var v StateVector
	seen := make(map[string]bool, len(fieldDefs))

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		label, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		for _, d := range fieldDefs {
			if d.label != label {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return StateVector{}, fmt.Errorf("parse %s: %w", label, err)
			}
			*d.ptr(&v) = f
			seen[d.key] = true
		}
	}
	if err := sc.Err(); err != nil {
		return StateVector{}, fmt.Errorf("scan vector text: %w", err)
	}
	for _, d := range fieldDefs {
		if !seen[d.key] {
			return StateVector{}, fmt.Errorf("missing field %q", d.label)
		}
	}
	return v, nil
}

// #endregion format
