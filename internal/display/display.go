package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region bars

const (
	fullBlock  = "█"
	emptyBlock = "░"
)

// DefaultBarWidth is the bar length used when callers pass width <= 0.
const DefaultBarWidth = 20

// Bar renders value as a proportional bar of width cells. Values outside
// [0, 1] are clamped and NaN draws as empty.
func Bar(value float64, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	if math.IsNaN(value) {
		value = 0
	}
	filled := int(math.Round(state.Clamp(value) * float64(width)))
	return strings.Repeat(fullBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

// Bars renders every vector field as "Label  bar  0.000", one per line,
// with labels padded to a common display width.
func Bars(v state.StateVector, width int) string {
	fields := state.Fields(v)
	labelWidth := 0
	for _, f := range fields {
		labelWidth = max(labelWidth, uniseg.StringWidth(f.Label))
	}

	var b strings.Builder
	for _, f := range fields {
		pad := labelWidth - uniseg.StringWidth(f.Label)
		fmt.Fprintf(&b, "%s%s  %s  %.3f\n", f.Label, strings.Repeat(" ", pad), Bar(f.Value, width), f.Value)
	}
	return b.String()
}

// #endregion bars

// #region symptoms

// SymptomLabel turns a symptom key such as "back_pain" into "Back Pain".
// A Caser carries state, so each call builds its own.
func SymptomLabel(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.TrimSpace(key), "_", " "))
}

// SymptomsLine lists flagged symptoms by label. Extras carry their value.
func SymptomsLine(s state.Symptoms) string {
	flagged := s.Flagged()
	if len(flagged) == 0 {
		return "None"
	}
	parts := make([]string, len(flagged))
	for i, name := range flagged {
		parts[i] = SymptomLabel(name)
		if v, ok := s.Extra[name]; ok && v > 1 {
			parts[i] = fmt.Sprintf("%s (%d)", parts[i], v)
		}
	}
	return strings.Join(parts, ", ")
}

// #endregion symptoms

// #region truncate

// Truncate shortens text to at most n user-perceived characters, adding an
// ellipsis when it cuts.
func Truncate(text string, n int) string {
	if n <= 0 || uniseg.GraphemeClusterCount(text) <= n {
		return text
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < n-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString("…")
	return b.String()
}

// #endregion truncate
