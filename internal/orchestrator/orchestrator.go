package orchestrator

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/logging"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #endregion

// #region options

// Options tunes a run.
type Options struct {
	MaxParallel     int           // concurrent generator calls per run
	GenerateTimeout time.Duration // per generator call, 0 = none
	HistoryLimit    int           // earlier scenarios read for the memory-aware prompt
	Eval            eval.EvalConfig
}

// DefaultOptions returns the lab defaults.
func DefaultOptions() Options {
	return Options{
		MaxParallel:     2,
		GenerateTimeout: 60 * time.Second,
		HistoryLimit:    5,
		Eval:            eval.DefaultEvalConfig(),
	}
}

// #endregion

// #region orchestrator-struct

// Orchestrator runs experiments: it computes a scenario's state vector,
// generates one output per strategy, scores and stores them.
type Orchestrator struct {
	db          *sql.DB
	scenarios   *state.Store
	history     HistoryProvider
	generations *GenerationStore
	evaluations *eval.EvaluationStore
	memory      *StrategyMemory
	harness     *eval.EvalHarness
	gen         codec.Generator
	opts        Options
}

// #endregion

// #region constructor

// NewOrchestrator creates a fully wired orchestrator on the store's database.
func NewOrchestrator(store *state.Store, gen codec.Generator, opts Options) (*Orchestrator, error) {
	db := store.DB()
	if err := logging.EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("run log schema: %w", err)
	}
	generations, err := NewGenerationStore(db)
	if err != nil {
		return nil, err
	}
	evaluations, err := eval.NewEvaluationStore(db, generations)
	if err != nil {
		return nil, err
	}
	mem, err := NewStrategyMemory(db)
	if err != nil {
		return nil, fmt.Errorf("strategy memory: %w", err)
	}
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}

	return &Orchestrator{
		db:          db,
		scenarios:   store,
		history:     store,
		generations: generations,
		evaluations: evaluations,
		memory:      mem,
		harness:     eval.NewEvalHarness(opts.Eval),
		gen:         gen,
		opts:        opts,
	}, nil
}

// #endregion

// #region run

// genOutcome is one generator call inside a run.
type genOutcome struct {
	strategy StrategyID
	prompt   string
	result   codec.GenerateResult
	err      error
}

// Run executes one experiment. The scenario is stored before any generator
// call, so a failed run still leaves the scenario and its provenance behind.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := state.Validate(req.Input); err != nil {
		return RunResult{}, err
	}
	strategies, err := req.strategies()
	if err != nil {
		return RunResult{}, err
	}
	comp, err := state.Explain(req.Input)
	if err != nil {
		return RunResult{}, err
	}
	sampling := withDefaults(req.Sampling)
	trigger := req.Trigger
	if trigger == "" {
		trigger = "api"
	}

	rec, err := o.scenarios.CreateScenario(req.Input, comp)
	if err != nil {
		return RunResult{}, fmt.Errorf("store scenario: %w", err)
	}
	log.Printf("[RUN] scenario=%s phase=%s basis=%s strategies=%d",
		rec.ID, req.Input.Phase, comp.Basis, len(strategies))

	history, err := o.historyFor(req.Input, rec.ID, strategies)
	if err != nil {
		return RunResult{}, err
	}

	outcomes := make([]genOutcome, len(strategies))
	for i, sid := range strategies {
		prompt, err := BuildPrompt(sid, req.Input, comp.Vector, history)
		if err != nil {
			return RunResult{}, err
		}
		outcomes[i] = genOutcome{strategy: sid, prompt: prompt}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.MaxParallel)
	for i := range outcomes {
		out := &outcomes[i]
		g.Go(func() error {
			callCtx := gctx
			if o.opts.GenerateTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, o.opts.GenerateTimeout)
				defer cancel()
			}
			out.result, out.err = o.gen.Generate(callCtx, codec.GenerateRequest{
				Prompt:   out.prompt,
				Sampling: sampling,
			})
			if out.err != nil {
				return fmt.Errorf("generate %s: %w", out.strategy, out.err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[RUN] scenario=%s failed: %v", rec.ID, err)
		o.logFailure(rec, comp, sampling, trigger, outcomes)
		return RunResult{}, err
	}

	results := o.score(rec.ID, comp.Vector, sampling, outcomes)
	for i := range results {
		results[i].CreatedAt = time.Now().UTC()
		if err := o.generations.Create(results[i]); err != nil {
			return RunResult{}, fmt.Errorf("store generation %s: %w", results[i].Strategy, err)
		}
		o.recordProvenance(rec, comp, trigger, results[i])
		if err := o.memory.RecordOutcome(OutcomeRecord{
			GenerationID: results[i].ID,
			StrategyID:   results[i].Strategy,
			Phase:        req.Input.Phase,
			Source:       SourceAuto,
			Quality:      results[i].Metrics.AlignmentScore,
			Violation:    results[i].Metrics.ViolationFlag,
		}); err != nil {
			log.Printf("[RUN] failed to record outcome: %v", err)
		}
	}

	log.Printf("[RUN] scenario=%s stored %d generations", rec.ID, len(results))
	return RunResult{Scenario: rec, Computation: comp, Results: results}, nil
}

// historyFor loads earlier same-phase scenarios when the memory-aware
// strategy runs without caller-supplied memory text.
func (o *Orchestrator) historyFor(in state.ScenarioInput, scenarioID string, strategies []StrategyID) ([]state.ScenarioRecord, error) {
	if in.MemoryText != "" || in.Phase == "" || o.opts.HistoryLimit <= 0 {
		return nil, nil
	}
	for _, sid := range strategies {
		if sid == StrategyMemoryAware {
			h, err := o.history.RecentByPhase(in.Phase, scenarioID, o.opts.HistoryLimit)
			if err != nil {
				return nil, fmt.Errorf("load history: %w", err)
			}
			return h, nil
		}
	}
	return nil, nil
}

// score builds generations in run order. The Generic output, when present,
// is the baseline every other output is measured against.
func (o *Orchestrator) score(scenarioID string, vec state.StateVector, sampling codec.Sampling, outcomes []genOutcome) []Generation {
	results := make([]Generation, len(outcomes))
	for i, out := range outcomes {
		s := sampling
		if out.result.Model != "" {
			s.Model = out.result.Model
		}
		results[i] = Generation{
			ID:         uuid.New().String(),
			ScenarioID: scenarioID,
			Strategy:   out.strategy,
			Sampling:   s,
			Prompt:     out.prompt,
			Output:     out.result.Text,
			LatencyMS:  out.result.Latency.Milliseconds(),
		}
	}

	var baselineText, baselineID *string
	for i := range results {
		if results[i].Strategy == StrategyGeneric {
			baselineText = &results[i].Output
			baselineID = &results[i].ID
			break
		}
	}
	for i := range results {
		var base *string
		if results[i].Strategy != StrategyGeneric && baselineText != nil {
			base = baselineText
			id := *baselineID
			results[i].BaselineGenerationID = &id
		}
		results[i].Metrics = o.harness.Run(results[i].Output, vec, base)
		results[i].WordCount = results[i].Metrics.WordCount
	}
	return results
}

// withDefaults swaps a zero Sampling for the defaults. Any other value is
// taken as given, so an explicit temperature of 0 survives; only an empty
// model name is filled.
func withDefaults(s codec.Sampling) codec.Sampling {
	if s == (codec.Sampling{}) {
		return codec.DefaultSampling()
	}
	if s.Model == "" {
		s.Model = codec.DefaultModel
	}
	return s
}

// #endregion

// #region provenance

func generationRecord(rec state.ScenarioRecord, comp state.Computation, sid StrategyID, prompt string, s codec.Sampling) logging.GenerationRecord {
	vec := make(map[string]float64)
	for _, f := range state.Fields(comp.Vector) {
		vec[f.Key] = f.Value
	}
	return logging.GenerationRecord{
		ScenarioID:     rec.ID,
		Strategy:       string(sid),
		Prompt:         prompt,
		Model:          s.Model,
		Temperature:    s.Temperature,
		TopP:           s.TopP,
		MaxTokens:      s.MaxTokens,
		Seed:           s.Seed,
		Vector:         vec,
		HormoneBasis:   string(comp.Basis),
		FormulaVersion: rec.FormulaVersion,
	}
}

func (o *Orchestrator) recordProvenance(rec state.ScenarioRecord, comp state.Computation, trigger string, g Generation) {
	gr := generationRecord(rec, comp, g.Strategy, g.Prompt, g.Sampling)
	gr.Output = g.Output
	gr.LatencyMS = g.LatencyMS
	gr.Metrics = &logging.GenerationRecordMetrics{
		WordCount:        g.Metrics.WordCount,
		SemanticDistance: g.Metrics.SemanticDistance,
		AlignmentScore:   g.Metrics.AlignmentScore,
		SentimentScore:   g.Metrics.SentimentScore,
		ViolationFlag:    g.Metrics.ViolationFlag,
	}
	o.logRun(logging.RunEntry{
		ScenarioID:   rec.ID,
		GenerationID: g.ID,
		Strategy:     string(g.Strategy),
		TriggerType:  trigger,
		PromptHash:   logging.PromptHash(g.Prompt),
		Decision:     "stored",
	}, gr)
}

func (o *Orchestrator) logFailure(rec state.ScenarioRecord, comp state.Computation, s codec.Sampling, trigger string, outcomes []genOutcome) {
	for _, out := range outcomes {
		gr := generationRecord(rec, comp, out.strategy, out.prompt, s)
		entry := logging.RunEntry{
			ScenarioID:  rec.ID,
			Strategy:    string(out.strategy),
			TriggerType: trigger,
			PromptHash:  logging.PromptHash(out.prompt),
			Decision:    "error",
		}
		switch {
		case out.err != nil:
			gr.Error = out.err.Error()
			entry.Reason = out.err.Error()
		case out.result.Text != "":
			gr.Output = out.result.Text
			entry.Reason = "run aborted by another strategy's failure"
		default:
			entry.Reason = "not generated"
		}
		o.logRun(entry, gr)
	}
}

func (o *Orchestrator) logRun(entry logging.RunEntry, gr logging.GenerationRecord) {
	raw, err := json.Marshal(gr)
	if err != nil {
		log.Printf("[RUN] marshal generation record: %v", err)
	} else {
		entry.RecordJSON = string(raw)
	}
	entry.CreatedAt = time.Now().UTC()
	if err := logging.LogRun(o.db, entry); err != nil {
		log.Printf("[RUN] failed to log provenance: %v", err)
	}
}

// #endregion

// #region evaluate

// Evaluate stores a human rating and feeds it into strategy memory.
func (o *Orchestrator) Evaluate(r eval.Rating) (eval.Evaluation, error) {
	ev, err := o.evaluations.Create(r)
	if err != nil {
		return eval.Evaluation{}, err
	}
	phase := state.Phase("")
	strategy := StrategyID("")
	if ev.Generation != nil {
		phase = ev.Generation.Phase
		strategy = StrategyID(ev.Generation.Strategy)
	}
	if err := o.memory.RecordOutcome(OutcomeRecord{
		GenerationID: ev.GenerationID,
		StrategyID:   strategy,
		Phase:        phase,
		Source:       SourceHuman,
		Quality:      ev.Mean(),
		CreatedAt:    ev.CreatedAt,
	}); err != nil {
		log.Printf("[EVAL] failed to record outcome: %v", err)
	}
	log.Printf("[EVAL] generation=%s strategy=%s mean=%.2f evaluator=%s",
		ev.GenerationID, strategy, ev.Mean(), ev.EvaluatorID)
	return ev, nil
}

// Evaluations lists stored ratings newest first.
func (o *Orchestrator) Evaluations(limit int) ([]eval.Evaluation, error) {
	return o.evaluations.List(limit)
}

// #endregion

// #region queries

// Scenario returns a stored scenario with its generations.
func (o *Orchestrator) Scenario(id string) (ScenarioDetail, error) {
	rec, err := o.scenarios.GetScenario(id)
	if err != nil {
		return ScenarioDetail{}, err
	}
	gens, err := o.generations.ForScenario(id)
	if err != nil {
		return ScenarioDetail{}, err
	}
	return ScenarioDetail{Scenario: rec, Generations: gens}, nil
}

// Scenarios lists recent scenarios, newest first.
func (o *Orchestrator) Scenarios(limit int) ([]state.ScenarioRecord, error) {
	return o.scenarios.ListScenarios(limit)
}

// Generation returns one stored generation.
func (o *Orchestrator) Generation(id string) (Generation, error) {
	return o.generations.Get(id)
}

// Summary reports per-strategy outcomes and the best rated strategy.
// phase may be empty for all phases.
func (o *Orchestrator) Summary(phase state.Phase) ([]StrategySummary, StrategyID, error) {
	if phase != "" && !phase.Valid() {
		return nil, "", fmt.Errorf("%w: phase %q", state.ErrInvalidEnumeration, phase)
	}
	summary, err := o.memory.Summary(phase)
	if err != nil {
		return nil, "", err
	}
	best, _, err := o.memory.BestStrategy(phase)
	if err != nil {
		return nil, "", err
	}
	return summary, best, nil
}

// Runs returns the provenance log for a scenario.
func (o *Orchestrator) Runs(scenarioID string) ([]logging.RunEntry, error) {
	entries, err := logging.ListRuns(o.db, scenarioID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entries, err
}

// #endregion
