package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/display"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/logging"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region flex-number

// flexInt accepts a JSON number or a numeric string; the dashboard sends
// form values as strings.
type flexInt struct {
	Value *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		f.Value = &n
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v := int(n)
	f.Value = &v
	return nil
}

// #endregion flex-number

// #region requests

type generationConfig struct {
	ModelName   string   `json:"modelName"`
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"topP"`
	MaxTokens   flexInt  `json:"maxTokens"`
	Seed        flexInt  `json:"seed"`
}

// sampling overlays the request config on defaults.
func (c generationConfig) sampling(defaults codec.Sampling) codec.Sampling {
	s := defaults
	if c.ModelName != "" {
		s.Model = c.ModelName
	}
	if c.Temperature != nil {
		s.Temperature = *c.Temperature
	}
	if c.TopP != nil {
		s.TopP = *c.TopP
	}
	if c.MaxTokens.Value != nil {
		s.MaxTokens = *c.MaxTokens.Value
	}
	if c.Seed.Value != nil {
		seed := *c.Seed.Value
		s.Seed = &seed
	}
	return s
}

type generateRequest struct {
	ScenarioInput         *state.ScenarioInput `json:"scenarioInput"`
	Config                generationConfig     `json:"config"`
	Strategy              string               `json:"strategy"`
	GenerateAllStrategies bool                 `json:"generateAllStrategies"`
}

type evaluateRequest struct {
	GenerationID             string `json:"generationId"`
	EvaluatorID              string `json:"evaluatorId"`
	RelevanceScore           int    `json:"relevanceScore"`
	SpecificityScore         int    `json:"specificityScore"`
	BiologicalGroundingScore int    `json:"biologicalGroundingScore"`
	PersonalizationScore     int    `json:"personalizationScore"`
	SafetyScore              int    `json:"safetyScore"`
}

func (r evaluateRequest) rating() eval.Rating {
	return eval.Rating{
		GenerationID:        r.GenerationID,
		EvaluatorID:         r.EvaluatorID,
		Relevance:           r.RelevanceScore,
		Specificity:         r.SpecificityScore,
		BiologicalGrounding: r.BiologicalGroundingScore,
		Personalization:     r.PersonalizationScore,
		Safety:              r.SafetyScore,
	}
}

// #endregion requests

// #region responses

type vectorResponse struct {
	Vector         state.StateVector  `json:"vector"`
	Formatted      string             `json:"formatted"`
	Bars           string             `json:"bars"`
	HormoneBasis   state.HormoneBasis `json:"hormoneBasis"`
	CycleDay       int                `json:"cycleDay,omitempty"`
	MoodScore      float64            `json:"moodScore"`
	FormulaVersion string             `json:"formulaVersion"`
}

func newVectorResponse(c state.Computation) vectorResponse {
	return vectorResponse{
		Vector:         c.Vector,
		Formatted:      state.Format(c.Vector),
		Bars:           display.Bars(c.Vector, display.DefaultBarWidth),
		HormoneBasis:   c.Basis,
		CycleDay:       c.CycleDay,
		MoodScore:      c.MoodScore,
		FormulaVersion: state.FormulaVersion,
	}
}

type metricsJSON struct {
	SemanticDistance     *float64 `json:"semantic_distance"`
	AlignmentScore       float64  `json:"alignment_score"`
	ViolationFlag        bool     `json:"violation_flag"`
	SentimentScore       float64  `json:"sentiment_score"`
	BaselineGenerationID *string  `json:"baseline_generation_id"`
}

type resultJSON struct {
	GenerationID string                  `json:"generationId"`
	Strategy     orchestrator.StrategyID `json:"strategy"`
	Model        string                  `json:"model"`
	Prompt       string                  `json:"prompt"`
	Output       string                  `json:"output"`
	WordCount    int                     `json:"wordCount"`
	LatencyMS    int64                   `json:"latencyMs"`
	Metrics      metricsJSON             `json:"metrics"`
}

func newResultJSON(g orchestrator.Generation) resultJSON {
	return resultJSON{
		GenerationID: g.ID,
		Strategy:     g.Strategy,
		Model:        g.Sampling.Model,
		Prompt:       g.Prompt,
		Output:       g.Output,
		WordCount:    g.WordCount,
		LatencyMS:    g.LatencyMS,
		Metrics: metricsJSON{
			SemanticDistance:     g.Metrics.SemanticDistance,
			AlignmentScore:       g.Metrics.AlignmentScore,
			ViolationFlag:        g.Metrics.ViolationFlag,
			SentimentScore:       g.Metrics.SentimentScore,
			BaselineGenerationID: g.BaselineGenerationID,
		},
	}
}

// generateResponse flattens the single result into the top level when only
// one strategy ran, as older dashboard builds expect.
type generateResponse struct {
	ScenarioID string            `json:"scenarioId"`
	Vector     state.StateVector `json:"vector"`
	Results    []resultJSON      `json:"results"`

	GenerationID string       `json:"generationId,omitempty"`
	Prompt       string       `json:"prompt,omitempty"`
	Output       string       `json:"output,omitempty"`
	WordCount    int          `json:"wordCount,omitempty"`
	Metrics      *metricsJSON `json:"metrics,omitempty"`
}

func newGenerateResponse(res orchestrator.RunResult) generateResponse {
	out := generateResponse{
		ScenarioID: res.Scenario.ID,
		Vector:     res.Computation.Vector,
		Results:    make([]resultJSON, len(res.Results)),
	}
	for i, g := range res.Results {
		out.Results[i] = newResultJSON(g)
	}
	if len(out.Results) == 1 {
		r := out.Results[0]
		out.GenerationID = r.GenerationID
		out.Prompt = r.Prompt
		out.Output = r.Output
		out.WordCount = r.WordCount
		out.Metrics = &r.Metrics
	}
	return out
}

type scenarioJSON struct {
	ID             string              `json:"id"`
	Input          state.ScenarioInput `json:"input"`
	SymptomLabels  string              `json:"symptomLabels"`
	Vector         state.StateVector   `json:"vector"`
	HormoneBasis   state.HormoneBasis  `json:"hormoneBasis"`
	FormulaVersion string              `json:"formulaVersion"`
	CreatedAt      time.Time           `json:"timestamp"`
}

func newScenarioJSON(rec state.ScenarioRecord) scenarioJSON {
	return scenarioJSON{
		ID:             rec.ID,
		Input:          rec.Input,
		SymptomLabels:  display.SymptomsLine(rec.Input.Symptoms),
		Vector:         rec.Vector,
		HormoneBasis:   rec.Basis,
		FormulaVersion: rec.FormulaVersion,
		CreatedAt:      rec.CreatedAt,
	}
}

type scenarioDetailJSON struct {
	Scenario    scenarioJSON `json:"scenario"`
	Generations []resultJSON `json:"generations"`
}

type runJSON struct {
	GenerationID string          `json:"generationId,omitempty"`
	Strategy     string          `json:"strategy"`
	Trigger      string          `json:"trigger"`
	PromptHash   string          `json:"promptHash,omitempty"`
	Decision     string          `json:"decision"`
	Reason       string          `json:"reason,omitempty"`
	Record       json.RawMessage `json:"record,omitempty"`
	CreatedAt    time.Time       `json:"timestamp"`
}

func newRunJSON(e logging.RunEntry) runJSON {
	return runJSON{
		GenerationID: e.GenerationID,
		Strategy:     e.Strategy,
		Trigger:      e.TriggerType,
		PromptHash:   e.PromptHash,
		Decision:     e.Decision,
		Reason:       e.Reason,
		Record:       json.RawMessage(e.RecordJSON),
		CreatedAt:    e.CreatedAt,
	}
}

type evaluationJSON struct {
	ID                       string              `json:"id"`
	GenerationID             string              `json:"generation_id"`
	EvaluatorID              string              `json:"evaluator_id"`
	RelevanceScore           int                 `json:"relevance_score"`
	SpecificityScore         int                 `json:"specificity_score"`
	BiologicalGroundingScore int                 `json:"biological_grounding_score"`
	PersonalizationScore     int                 `json:"personalization_score"`
	SafetyScore              int                 `json:"safety_score"`
	Timestamp                time.Time           `json:"timestamp"`
	Generation               *eval.GenerationRef `json:"generation,omitempty"`
}

func newEvaluationJSON(ev eval.Evaluation) evaluationJSON {
	return evaluationJSON{
		ID:                       ev.ID,
		GenerationID:             ev.GenerationID,
		EvaluatorID:              ev.EvaluatorID,
		RelevanceScore:           ev.Relevance,
		SpecificityScore:         ev.Specificity,
		BiologicalGroundingScore: ev.BiologicalGrounding,
		PersonalizationScore:     ev.Personalization,
		SafetyScore:              ev.Safety,
		Timestamp:                ev.CreatedAt,
		Generation:               ev.Generation,
	}
}

type summaryJSON struct {
	Phase      state.Phase                    `json:"phase,omitempty"`
	Best       orchestrator.StrategyID        `json:"best,omitempty"`
	Strategies []orchestrator.StrategySummary `json:"strategies"`
}

// #endregion responses
