package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/shreeharini-261/ARIVAI-Research/internal/display"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/logging"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to cyclelab.db")
	last := flag.Int("last", 20, "show N most recent scenarios or evaluations")
	scenario := flag.String("scenario", "", "show single scenario detail")
	evaluations := flag.Bool("evaluations", false, "list human evaluations")
	summary := flag.String("summary", "", "strategy summary for a phase (\"all\" for every phase)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/cyclelab.db [--last N] [--scenario id] [--evaluations] [--summary phase] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	gens, err := orchestrator.NewGenerationStore(store.DB())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open generations: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *scenario != "":
		err = runDetailMode(store, gens, *scenario, *jsonOut)
	case *evaluations:
		err = runEvaluationsMode(store, gens, *last, *jsonOut)
	case *summary != "":
		err = runSummaryMode(store, *summary, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ID        string            `json:"id"`
	Phase     state.Phase       `json:"phase"`
	Mood      state.Mood        `json:"mood"`
	CycleDay  *int              `json:"cycle_day,omitempty"`
	Basis     string            `json:"hormone_basis"`
	Vector    state.StateVector `json:"vector"`
	Symptoms  string            `json:"symptoms"`
	CreatedAt string            `json:"created_at"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	records, err := store.ListScenarios(last)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no scenarios found")
		return nil
	}

	// Store returns newest first; show chronologically.
	rows := make([]listRow, len(records))
	for i, rec := range records {
		rows[len(records)-1-i] = listRow{
			ID:        rec.ID,
			Phase:     rec.Input.Phase,
			Mood:      rec.Input.Mood,
			CycleDay:  rec.Input.CycleDay,
			Basis:     string(rec.Basis),
			Vector:    rec.Vector,
			Symptoms:  display.SymptomsLine(rec.Input.Symptoms),
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %-18s  %4s  %5s  %5s  %5s  %s\n",
		"Scenario", "Phase", "Mood", "Day", "E/P", "Vol", "Infl", "Time")
	fmt.Printf("%-10s+-%-10s+-%-18s+-%4s+-%5s+-%5s+-%5s+-%s\n",
		"----------", "----------", "------------------", "----", "-----", "-----", "-----", "--------------------")
	for _, r := range rows {
		day := "—"
		if r.CycleDay != nil {
			day = fmt.Sprintf("%d", *r.CycleDay)
		}
		phase := string(r.Phase)
		if phase == "" {
			phase = "—"
		}
		ep := fmt.Sprintf("%.1f/%.1f", r.Vector.EstrogenInfluence, r.Vector.ProgesteroneInfluence)
		fmt.Printf("%-10s  %-10s  %-18s  %4s  %5s  %5.2f  %5.2f  %s\n",
			shortID(r.ID), phase, r.Mood, day, ep,
			r.Vector.EmotionalVolatility, r.Vector.InflammationLikelihood, r.CreatedAt)
	}

	latest := records[0]
	fmt.Printf("\nState vector (latest):\n%s", display.Bars(latest.Vector, display.DefaultBarWidth))
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Scenario    state.ScenarioRecord      `json:"scenario"`
	Generations []orchestrator.Generation `json:"generations"`
	Runs        []runRow                  `json:"runs"`
}

type runRow struct {
	Strategy  string `json:"strategy"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func runDetailMode(store *state.Store, gens *orchestrator.GenerationStore, id string, jsonOut bool) error {
	rec, err := store.GetScenario(id)
	if err != nil {
		return err
	}
	generations, err := gens.ForScenario(id)
	if err != nil {
		return err
	}
	if err := logging.EnsureSchema(store.DB()); err != nil {
		return err
	}
	entries, err := logging.ListRuns(store.DB(), id)
	if err != nil {
		return err
	}
	runs := make([]runRow, len(entries))
	for i, e := range entries {
		runs[i] = runRow{
			Strategy:  e.Strategy,
			Decision:  e.Decision,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(detailOutput{Scenario: rec, Generations: generations, Runs: runs})
	}

	in := rec.Input
	fmt.Printf("Scenario:   %s\n", rec.ID)
	fmt.Printf("Created:    %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Phase:      %s\n", in.Phase)
	fmt.Printf("Mood:       %s\n", in.Mood)
	fmt.Printf("Energy:     %d/10  Sleep: %d/10  Stress: %d/10  Severity: %d/3\n",
		in.Energy, in.Sleep, in.Stress, in.SymptomSeverity)
	if in.CycleDay != nil {
		fmt.Printf("Cycle Day:  %d of %d\n", *in.CycleDay, in.EffectiveCycleLength())
	}
	fmt.Printf("Symptoms:   %s\n", display.SymptomsLine(in.Symptoms))
	fmt.Printf("Basis:      %s (formula %s)\n", rec.Basis, rec.FormulaVersion)

	fmt.Printf("\nState vector:\n%s", display.Bars(rec.Vector, display.DefaultBarWidth))

	for _, g := range generations {
		fmt.Printf("\n[%s] %s  %dms\n", g.Strategy, g.Sampling.Model, g.LatencyMS)
		fmt.Printf("  words=%d alignment=%.2f sentiment=%.2f violation=%v",
			g.Metrics.WordCount, g.Metrics.AlignmentScore, g.Metrics.SentimentScore, g.Metrics.ViolationFlag)
		if g.Metrics.SemanticDistance != nil {
			fmt.Printf(" distance=%.4f", *g.Metrics.SemanticDistance)
		}
		fmt.Printf("\n  %s\n", display.Truncate(g.Output, 240))
	}

	if len(runs) > 0 {
		fmt.Printf("\nRun log:\n")
		for _, r := range runs {
			fmt.Printf("  %-22s %-7s %s %s\n", r.Strategy, r.Decision, r.CreatedAt, r.Reason)
		}
	}
	return nil
}

// #endregion detail-mode

// #region evaluations-mode

func runEvaluationsMode(store *state.Store, gens *orchestrator.GenerationStore, last int, jsonOut bool) error {
	evals, err := eval.NewEvaluationStore(store.DB(), gens)
	if err != nil {
		return err
	}
	list, err := evals.List(last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "no evaluations found")
		return nil
	}

	fmt.Printf("%-10s  %-22s  %-12s  %3s %3s %3s %3s %3s  %5s\n",
		"Generation", "Strategy", "Evaluator", "Rel", "Spc", "Bio", "Per", "Saf", "Mean")
	for _, e := range list {
		strategy := "—"
		if e.Generation != nil {
			strategy = e.Generation.Strategy
		}
		fmt.Printf("%-10s  %-22s  %-12s  %3d %3d %3d %3d %3d  %5.2f\n",
			shortID(e.GenerationID), strategy, display.Truncate(e.EvaluatorID, 12),
			e.Relevance, e.Specificity, e.BiologicalGrounding, e.Personalization, e.Safety, e.Mean())
	}
	return nil
}

// #endregion evaluations-mode

// #region summary-mode

type summaryOutput struct {
	Phase      string                         `json:"phase"`
	Best       orchestrator.StrategyID        `json:"best,omitempty"`
	BestScore  float64                        `json:"best_score,omitempty"`
	Strategies []orchestrator.StrategySummary `json:"strategies"`
}

func runSummaryMode(store *state.Store, phaseArg string, jsonOut bool) error {
	var phase state.Phase
	if phaseArg != "all" {
		p, err := state.ParsePhase(phaseArg)
		if err != nil {
			return err
		}
		phase = p
	}

	mem, err := orchestrator.NewStrategyMemory(store.DB())
	if err != nil {
		return err
	}
	rows, err := mem.Summary(phase)
	if err != nil {
		return err
	}
	best, score, err := mem.BestStrategy(phase)
	if err != nil {
		return err
	}

	out := summaryOutput{Phase: phaseArg, Best: best, BestScore: score, Strategies: rows}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("%-22s  %5s  %9s  %5s  %7s  %6s  %8s\n",
		"Strategy", "Gens", "Alignment", "Viol", "Ratings", "Mean", "Weighted")
	for _, r := range rows {
		fmt.Printf("%-22s  %5d  %9.3f  %5d  %7d  %6.3f  %8.3f\n",
			r.Strategy, r.Generations, r.MeanAlignment, r.Violations, r.Ratings, r.MeanRating, r.WeightedScore)
	}
	if best != "" {
		fmt.Printf("\nBest (%s): %s %.3f\n", phaseArg, best, score)
	} else {
		fmt.Printf("\nBest (%s): not enough ratings\n", phaseArg)
	}
	return nil
}

// #endregion summary-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
