package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region strategy-definitions

// StrategyConfig defines what a strategy puts into its prompt.
type StrategyConfig struct {
	ID             StrategyID
	System         string
	IncludePhase   bool
	IncludeHistory bool
	IncludeVector  bool
	Instruction    string
}

var strategyConfigs = map[StrategyID]StrategyConfig{
	StrategyGeneric: {
		ID:          StrategyGeneric,
		System:      "You are a general wellness assistant.",
		Instruction: "Provide helpful advice.",
	},
	StrategyPhaseAware: {
		ID:           StrategyPhaseAware,
		System:       "You are a menstrual health-aware AI assistant. Ground recommendations in hormonal physiology.",
		IncludePhase: true,
		Instruction:  "Explain biological context briefly and give structured recommendations.",
	},
	StrategyMemoryAware: {
		ID:             StrategyMemoryAware,
		System:         "You are a menstrual health AI that considers historical patterns and hormonal cycles.",
		IncludePhase:   true,
		IncludeHistory: true,
		Instruction:    "Provide biologically grounded and context-adaptive recommendations.",
	},
	StrategyStateVector: {
		ID:            StrategyStateVector,
		System:        "You are an advanced menstrual health AI system. Use the provided biological state profile quantitatively. Recommendations must align with the physiological indicators.",
		IncludePhase:  true,
		IncludeVector: true,
		Instruction: "Provide:\n" +
			"1. Brief physiological interpretation (2-3 sentences).\n" +
			"2. Adaptive recommendations explicitly aligned with the state indicators.\n" +
			"3. Avoid generic advice.",
	},
}

// Config returns the configuration for id.
func Config(id StrategyID) (StrategyConfig, bool) {
	cfg, ok := strategyConfigs[id]
	return cfg, ok
}

// #endregion

// #region build-prompt

// fallbackHistory is used when neither memory text nor prior scenarios exist.
const fallbackHistory = "Context indicates recurrent symptoms in this phase previously."

// BuildPrompt renders the prompt for one strategy. history is only read by
// the memory-aware strategy and may be nil.
func BuildPrompt(id StrategyID, in state.ScenarioInput, vec state.StateVector, history []state.ScenarioRecord) (string, error) {
	cfg, ok := strategyConfigs[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "System: %s\n", cfg.System)
	b.WriteString("User: ")
	if cfg.IncludePhase {
		fmt.Fprintf(&b, "Menstrual Phase: %s\n", in.Phase)
	} else {
		b.WriteString("User reports:\n")
	}

	if cfg.IncludeVector {
		b.WriteString("Biological State Profile:\n")
		b.WriteString(state.Format(vec))
		b.WriteString("\n")
		b.WriteString(cfg.Instruction)
		return b.String(), nil
	}

	if cfg.IncludeHistory {
		b.WriteString("Current State:\n")
	}
	fmt.Fprintf(&b, "Mood: %s\n", in.Mood)
	fmt.Fprintf(&b, "Energy: %d/10\n", in.Energy)
	fmt.Fprintf(&b, "Sleep: %d/10\n", in.Sleep)
	fmt.Fprintf(&b, "Symptoms: %s\n", SymptomList(in.Symptoms))
	if cfg.IncludeHistory {
		writeCycleContext(&b, in)
		fmt.Fprintf(&b, "Historical Pattern: %s\n", HistorySummary(in, history))
	}
	b.WriteString(cfg.Instruction)
	return b.String(), nil
}

// SymptomList renders flagged symptoms as name(value), or "none".
func SymptomList(s state.Symptoms) string {
	flagged := s.Flagged()
	if len(flagged) == 0 {
		return "none"
	}
	values := s.Map()
	parts := make([]string, len(flagged))
	for i, name := range flagged {
		parts[i] = fmt.Sprintf("%s(%d)", name, values[name])
	}
	return strings.Join(parts, ", ")
}

func writeCycleContext(b *strings.Builder, in state.ScenarioInput) {
	if in.CycleDay != nil {
		fmt.Fprintf(b, "Cycle Day: %d of %d\n", *in.CycleDay, in.EffectiveCycleLength())
	}
	if in.PreviousSleepAvg != nil {
		fmt.Fprintf(b, "Previous Sleep Average: %.1f/10\n", *in.PreviousSleepAvg)
	}
	if in.PreviousStressAvg != nil {
		fmt.Fprintf(b, "Previous Stress Average: %.1f/10\n", *in.PreviousStressAvg)
	}
}

// #endregion

// #region history

// maxHistorySymptoms caps how many recurring symptoms the summary names.
const maxHistorySymptoms = 3

// HistorySummary describes the user's pattern for the memory-aware prompt:
// the supplied memory text, else recurring symptoms across earlier
// same-phase scenarios, else a fixed line.
func HistorySummary(in state.ScenarioInput, history []state.ScenarioRecord) string {
	if text := strings.TrimSpace(in.MemoryText); text != "" {
		return text
	}
	if len(history) == 0 {
		return fallbackHistory
	}

	counts := make(map[string]int)
	for _, rec := range history {
		for _, name := range rec.Input.Symptoms.Flagged() {
			counts[name]++
		}
	}
	type recurring struct {
		name  string
		count int
	}
	var rs []recurring
	for name, n := range counts {
		if n >= 2 {
			rs = append(rs, recurring{name, n})
		}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].count != rs[j].count {
			return rs[i].count > rs[j].count
		}
		return rs[i].name < rs[j].name
	})
	if len(rs) > maxHistorySymptoms {
		rs = rs[:maxHistorySymptoms]
	}

	if len(rs) == 0 {
		return fmt.Sprintf("Across %d earlier %s reports no symptom recurred.", len(history), in.Phase)
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%s (%d of %d)", r.name, r.count, len(history))
	}
	return fmt.Sprintf("Across %d earlier %s reports, recurring symptoms: %s.",
		len(history), in.Phase, strings.Join(parts, ", "))
}

// #endregion
