package orchestrator

// #region imports
import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #endregion

// #region strategy-id

// StrategyID identifies a prompting strategy by its display name.
type StrategyID string

const (
	StrategyGeneric     StrategyID = "Generic"
	StrategyPhaseAware  StrategyID = "Phase-Aware"
	StrategyMemoryAware StrategyID = "Phase + Memory-Aware"
	StrategyStateVector StrategyID = "Phase + State Vector"
)

// Strategies lists every strategy in run order. Generic is first so its
// output is available as the baseline.
var Strategies = []StrategyID{
	StrategyGeneric,
	StrategyPhaseAware,
	StrategyMemoryAware,
	StrategyStateVector,
}

// ErrInvalidStrategy is returned for an unknown strategy name.
var ErrInvalidStrategy = errors.New("invalid strategy")

// ParseStrategy accepts a display name, case-insensitively.
func ParseStrategy(s string) (StrategyID, error) {
	t := strings.TrimSpace(s)
	for _, id := range Strategies {
		if strings.EqualFold(t, string(id)) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// #endregion

// #region run-request

// RunRequest is one experiment: a scenario plus the strategies to compare.
type RunRequest struct {
	Input       state.ScenarioInput
	Strategy    StrategyID // used when GenerateAll is false
	GenerateAll bool
	Sampling    codec.Sampling // zero value means codec.DefaultSampling
	Trigger     string         // "api" | "lab"
}

// strategies returns the strategies this request runs, in run order.
func (r RunRequest) strategies() ([]StrategyID, error) {
	if r.GenerateAll {
		return Strategies, nil
	}
	id, err := ParseStrategy(string(r.Strategy))
	if err != nil {
		return nil, err
	}
	return []StrategyID{id}, nil
}

// #endregion

// #region generation

// Generation is one stored strategy output with its metrics.
type Generation struct {
	ID                   string         `json:"generationId"`
	ScenarioID           string         `json:"scenarioId"`
	Strategy             StrategyID     `json:"strategy"`
	Sampling             codec.Sampling `json:"config"`
	Prompt               string         `json:"prompt"`
	Output               string         `json:"output"`
	WordCount            int            `json:"wordCount"`
	Metrics              eval.Metrics   `json:"metrics"`
	BaselineGenerationID *string        `json:"baselineGenerationId"`
	LatencyMS            int64          `json:"latencyMs"`
	CreatedAt            time.Time      `json:"timestamp"`
}

// #endregion

// #region run-result

// RunResult is the outcome of Run.
type RunResult struct {
	Scenario    state.ScenarioRecord
	Computation state.Computation
	Results     []Generation
}

// ScenarioDetail is a stored scenario with every generation made for it.
type ScenarioDetail struct {
	Scenario    state.ScenarioRecord
	Generations []Generation
}

// #endregion

// #region outcome-record

// OutcomeSource tells automatic metric outcomes apart from human ratings.
type OutcomeSource string

const (
	SourceAuto  OutcomeSource = "auto"
	SourceHuman OutcomeSource = "human"
)

// OutcomeRecord is a single row for strategy_outcomes.
type OutcomeRecord struct {
	GenerationID string
	StrategyID   StrategyID
	Phase        state.Phase
	Source       OutcomeSource
	Quality      float64 // alignment for auto, mean 1..5 score for human
	Violation    bool
	CreatedAt    time.Time
}

// StrategySummary aggregates outcomes for one strategy.
type StrategySummary struct {
	Strategy      StrategyID `json:"strategy"`
	Generations   int        `json:"generations"`
	MeanAlignment float64    `json:"meanAlignment"`
	Violations    int        `json:"violations"`
	Ratings       int        `json:"ratings"`
	MeanRating    float64    `json:"meanRating"`
	WeightedScore float64    `json:"weightedRating"`
}

// #endregion

// #region interfaces

// HistoryProvider returns earlier scenarios for the memory-aware strategy.
type HistoryProvider interface {
	RecentByPhase(phase state.Phase, excludeID string, limit int) ([]state.ScenarioRecord, error)
}

// #endregion
