package eval

import (
	"math"
	"strings"
	"unicode"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region eval-harness

// EvalHarness scores generated outputs against the state vector that
// produced them. Scoring is deterministic: the same output and vector always
// give the same metrics.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run scores output. baseline is the Generic strategy's output for the same
// scenario; pass nil when output is the baseline itself.
func (h *EvalHarness) Run(output string, vec state.StateVector, baseline *string) Metrics {
	m := Metrics{
		WordCount:      WordCount(output),
		SentimentScore: SentimentScore(output),
		ViolationFlag:  ViolationFlag(output),
	}
	if m.WordCount >= h.config.MinWords {
		m.AlignmentScore = h.AlignmentScore(output, vec)
	}
	if baseline != nil {
		d := SemanticDistance(*baseline, output)
		m.SemanticDistance = &d
	}
	return m
}

// #endregion eval-harness

// #region sentiment

// SentimentScore returns (pos-neg)/(pos+neg) over a small wellness lexicon,
// or 0 when no lexicon word appears. The result lies in [-1, 1].
func SentimentScore(text string) float64 {
	pos, neg := 0, 0
	for _, w := range strings.FieldsFunc(strings.ToLower(text), notLetter) {
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

func notLetter(r rune) bool { return !unicode.IsLetter(r) }

// #endregion sentiment

// #region alignment

// indicator is one state dimension an output may be expected to address.
type indicator struct {
	name     string
	salient  func(v state.StateVector, cfg EvalConfig) bool
	keywords []string
}

var indicators = []indicator{
	{
		name:     "estrogen",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.EstrogenInfluence >= c.HighThreshold },
		keywords: []string{"estrogen", "follicular", "ovulat", "social", "creative"},
	},
	{
		name:     "progesterone",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.ProgesteroneInfluence >= c.HighThreshold },
		keywords: []string{"progesterone", "luteal", "wind down", "slow", "cozy"},
	},
	{
		name:     "energy",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.EnergyStability <= c.LowThreshold },
		keywords: []string{"energy", "rest", "fatigue", "tired", "pace", "nap", "sleep"},
	},
	{
		name:     "volatility",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.EmotionalVolatility >= c.HighThreshold },
		keywords: []string{"mood", "emotion", "feeling", "stress", "anxi", "calm", "breath", "journal"},
	},
	{
		name:     "inflammation",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.InflammationLikelihood >= c.HighThreshold },
		keywords: []string{"inflamm", "cramp", "pain", "ache", "heat", "omega", "turmeric", "ginger"},
	},
	{
		name:     "gi",
		salient:  func(v state.StateVector, c EvalConfig) bool { return v.GastrointestinalDistress >= c.HighThreshold },
		keywords: []string{"digest", "gut", "bloat", "nausea", "fiber", "hydrat", "stomach", "peppermint"},
	},
}

// AlignmentScore is the share of salient state dimensions the output
// addresses by keyword. With nothing salient the output is fully aligned.
func (h *EvalHarness) AlignmentScore(output string, vec state.StateVector) float64 {
	lower := strings.ToLower(output)
	salient, hit := 0, 0
	for _, ind := range indicators {
		if !ind.salient(vec, h.config) {
			continue
		}
		salient++
		for _, kw := range ind.keywords {
			if strings.Contains(lower, kw) {
				hit++
				break
			}
		}
	}
	if salient == 0 {
		return 1
	}
	return state.Clamp(float64(hit) / float64(salient))
}

// SalientDimensions lists the indicator names the vector makes salient.
func (h *EvalHarness) SalientDimensions(vec state.StateVector) []string {
	var out []string
	for _, ind := range indicators {
		if ind.salient(vec, h.config) {
			out = append(out, ind.name)
		}
	}
	return out
}

// #endregion alignment

// #region distance

// SemanticDistance is 1 minus the Jaccard overlap of content tokens.
// Two outputs with no content tokens are identical.
func SemanticDistance(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	shared := 0
	for _, t := range tb {
		if set[t] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	d := 1 - float64(shared)/float64(union)
	return math.Round(d*1e4) / 1e4
}

// #endregion distance

// #region violation

// ViolationFlag reports whether the output contains medical overreach.
func ViolationFlag(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range violationPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// #endregion violation
