package logging

import "time"

// #region run-entry
// RunEntry is a single row in the run_log table.
type RunEntry struct {
	ScenarioID   string
	GenerationID string
	Strategy     string
	TriggerType  string // "api" | "lab"
	PromptHash   string
	RecordJSON   string
	Decision     string // "stored" | "error"
	Reason       string
	CreatedAt    time.Time
}
// #endregion run-entry

// #region generation-record
// GenerationRecord captures everything needed to re-issue one generation.
// Serialized as JSON into run_log.record_json.
type GenerationRecord struct {
	ScenarioID string `json:"scenario_id"`
	Strategy   string `json:"strategy"`
	Prompt     string `json:"prompt"`
	Output     string `json:"output,omitempty"`

	// Sampling config sent to the generator
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Seed        *int    `json:"seed,omitempty"`

	// Vector as embedded in the prompt
	Vector         map[string]float64 `json:"vector"`
	HormoneBasis   string             `json:"hormone_basis"`
	FormulaVersion string             `json:"formula_version"`

	Metrics *GenerationRecordMetrics `json:"metrics,omitempty"`

	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// GenerationRecordMetrics mirrors the stored output metrics.
type GenerationRecordMetrics struct {
	WordCount        int      `json:"word_count"`
	SemanticDistance *float64 `json:"semantic_distance,omitempty"`
	AlignmentScore   float64  `json:"alignment_score"`
	SentimentScore   float64  `json:"sentiment_score"`
	ViolationFlag    bool     `json:"violation_flag"`
}
// #endregion generation-record
