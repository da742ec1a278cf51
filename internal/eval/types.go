package eval

import (
	"errors"
	"fmt"
)

var (
	// ErrScoreOutOfRange is returned when a human rating falls outside 1..5.
	ErrScoreOutOfRange = errors.New("score out of range")
	// ErrMissingGeneration is returned when a rating names no generation.
	ErrMissingGeneration = errors.New("generation_id is required")
)

// #region eval-config

// EvalConfig holds the thresholds used to decide which state dimensions an
// output is expected to address.
type EvalConfig struct {
	HighThreshold float64 // dimension is salient at or above this
	LowThreshold  float64 // energy stability is salient at or below this
	MinWords      int     // shorter outputs score zero alignment
}

// DefaultEvalConfig returns the thresholds used by the lab.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		HighThreshold: 0.6,
		LowThreshold:  0.4,
		MinWords:      3,
	}
}

// #endregion eval-config

// #region eval-metric

// Metrics is the automatic scoring of one generated output.
// SemanticDistance is nil for the baseline output itself.
type Metrics struct {
	WordCount        int      `json:"wordCount"`
	SemanticDistance *float64 `json:"semanticDistance"`
	AlignmentScore   float64  `json:"alignmentScore"`
	SentimentScore   float64  `json:"sentimentScore"`
	ViolationFlag    bool     `json:"violationFlag"`
}

// #endregion eval-metric

// #region rating

// Rating is one human evaluation of a generated output. Each score is 1..5.
type Rating struct {
	GenerationID        string `json:"generation_id"`
	EvaluatorID         string `json:"evaluator_id"`
	Relevance           int    `json:"relevance"`
	Specificity         int    `json:"specificity"`
	BiologicalGrounding int    `json:"biological_grounding"`
	Personalization     int    `json:"personalization"`
	Safety              int    `json:"safety"`
}

// DefaultEvaluator is recorded when a rating carries no evaluator id.
const DefaultEvaluator = "anonymous"

// Mean returns the average of the five scores.
func (r Rating) Mean() float64 {
	return float64(r.Relevance+r.Specificity+r.BiologicalGrounding+r.Personalization+r.Safety) / 5
}

// Validate checks every score and fills in the default evaluator.
func (r *Rating) Validate() error {
	if r.GenerationID == "" {
		return ErrMissingGeneration
	}
	scores := []struct {
		name string
		v    int
	}{
		{"relevance", r.Relevance},
		{"specificity", r.Specificity},
		{"biological_grounding", r.BiologicalGrounding},
		{"personalization", r.Personalization},
		{"safety", r.Safety},
	}
	var errs []error
	for _, s := range scores {
		if s.v < 1 || s.v > 5 {
			errs = append(errs, fmt.Errorf("%w: %s=%d (want 1..5)", ErrScoreOutOfRange, s.name, s.v))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if r.EvaluatorID == "" {
		r.EvaluatorID = DefaultEvaluator
	}
	return nil
}

// #endregion rating
