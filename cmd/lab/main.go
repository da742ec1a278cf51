package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/shreeharini-261/ARIVAI-Research/internal/config"
	"github.com/shreeharini-261/ARIVAI-Research/internal/display"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

const helpText = `Set fields with key=value pairs, e.g.
  phase=luteal mood=irritable energy=4 sleep=6 stress=7 severity=2
  symptoms=cramps,bloating day=21 memory="worse before my period"

Commands:
  /show                  vector and current draft
  /prompt [strategy]     print the prompt a strategy would send
  /generate [strategy]   run one strategy, or all when omitted
  /summary [phase]       strategy summary from stored outcomes
  /reset                 start a new draft
  /help                  this text
  exit                   quit`

// #region session

type session struct {
	cfg   config.Config
	store *state.Store
	lab   *orchestrator.Orchestrator // nil when no generator is configured
	draft state.ScenarioInput
	out   io.Writer
}

// #endregion session

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	s := &session{cfg: cfg, store: store, draft: newDraft(), out: os.Stdout}

	gen, closeGen, err := cfg.NewGenerator(context.Background())
	switch {
	case errors.Is(err, config.ErrNoGenerator):
		fmt.Println("No generator configured; /generate is disabled.")
	case err != nil:
		log.Fatalf("generator: %v", err)
	default:
		defer closeGen()
		s.lab, err = orchestrator.NewOrchestrator(store, gen, cfg.OrchestratorOptions())
		if err != nil {
			log.Fatalf("orchestrator: %v", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lab> ",
		HistoryFile:     historyPath(),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	fmt.Println("Cycle lab ready.")
	fmt.Printf("  DB: %s | Model: %s\n", cfg.DBPath, cfg.Model)
	fmt.Println("Type /help for commands (or 'exit' to quit):")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := s.handle(line); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// #endregion main

// #region commands

func (s *session) handle(line string) error {
	if !strings.HasPrefix(line, "/") {
		if err := applyLine(&s.draft, line); err != nil {
			return err
		}
		return s.show()
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/show":
		return s.show()
	case "/reset":
		s.draft = newDraft()
		return s.show()
	case "/prompt":
		return s.prompt(arg)
	case "/generate":
		return s.generate(arg)
	case "/summary":
		return s.summary(arg)
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

func (s *session) show() error {
	in := s.draft
	phase := string(in.Phase)
	if phase == "" {
		phase = "none"
	}
	fmt.Fprintf(s.out, "Phase: %s | Mood: %s | Energy %d Sleep %d Stress %d Severity %d",
		phase, in.Mood, in.Energy, in.Sleep, in.Stress, in.SymptomSeverity)
	if in.CycleDay != nil {
		fmt.Fprintf(s.out, " | Day %d/%d", *in.CycleDay, in.EffectiveCycleLength())
	}
	fmt.Fprintf(s.out, "\nSymptoms: %s\n", display.SymptomsLine(in.Symptoms))

	if err := state.Validate(in); err != nil {
		fmt.Fprintf(s.out, "(draft not valid yet: %v)\n", err)
	}
	comp, err := state.Explain(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\n%s", display.Bars(comp.Vector, display.DefaultBarWidth))
	fmt.Fprintf(s.out, "basis=%s mood_score=%.2f\n", comp.Basis, comp.MoodScore)
	return nil
}

func (s *session) prompt(arg string) error {
	id := orchestrator.StrategyStateVector
	if arg != "" {
		var err error
		if id, err = orchestrator.ParseStrategy(arg); err != nil {
			return err
		}
	}
	vec, err := state.Compute(s.draft)
	if err != nil {
		return err
	}
	var history []state.ScenarioRecord
	if cfg, ok := orchestrator.Config(id); ok && cfg.IncludeHistory && s.draft.Phase != "" {
		history, err = s.store.RecentByPhase(s.draft.Phase, "", s.cfg.HistoryLimit)
		if err != nil {
			return err
		}
	}
	p, err := orchestrator.BuildPrompt(id, s.draft, vec, history)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "--- %s ---\n%s\n", id, p)
	return nil
}

func (s *session) generate(arg string) error {
	if s.lab == nil {
		return config.ErrNoGenerator
	}
	req := orchestrator.RunRequest{
		Input:       s.draft,
		GenerateAll: arg == "" || strings.EqualFold(arg, "all"),
		Sampling:    s.cfg.Sampling(),
		Trigger:     "lab",
	}
	if !req.GenerateAll {
		req.Strategy = orchestrator.StrategyID(arg)
	}

	fmt.Fprintln(s.out, "Generating...")
	res, err := s.lab.Run(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Scenario %s\n", res.Scenario.ID)
	for _, g := range res.Results {
		fmt.Fprintf(s.out, "\n[%s] %dms words=%d alignment=%.2f sentiment=%.2f",
			g.Strategy, g.LatencyMS, g.Metrics.WordCount, g.Metrics.AlignmentScore, g.Metrics.SentimentScore)
		if g.Metrics.SemanticDistance != nil {
			fmt.Fprintf(s.out, " distance=%.3f", *g.Metrics.SemanticDistance)
		}
		if g.Metrics.ViolationFlag {
			fmt.Fprint(s.out, " VIOLATION")
		}
		fmt.Fprintf(s.out, "\n%s\n(generation %s)\n", g.Output, g.ID)
	}
	return nil
}

func (s *session) summary(arg string) error {
	var phase state.Phase
	if arg != "" {
		p, err := state.ParsePhase(arg)
		if err != nil {
			return err
		}
		phase = p
	}
	mem, err := orchestrator.NewStrategyMemory(s.store.DB())
	if err != nil {
		return err
	}
	rows, err := mem.Summary(phase)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Fprintf(s.out, "%-22s gens=%-3d align=%.3f viol=%-2d ratings=%-3d weighted=%.3f\n",
			r.Strategy, r.Generations, r.MeanAlignment, r.Violations, r.Ratings, r.WeightedScore)
	}
	best, score, err := mem.BestStrategy(phase)
	if err != nil {
		return err
	}
	if best != "" {
		fmt.Fprintf(s.out, "best: %s (%.3f)\n", best, score)
	}
	return nil
}

// #endregion commands

// #region readline

func completer() *readline.PrefixCompleter {
	strategies := make([]readline.PrefixCompleterInterface, 0, len(orchestrator.Strategies))
	for _, id := range orchestrator.Strategies {
		strategies = append(strategies, readline.PcItem(string(id)))
	}
	phases := make([]readline.PrefixCompleterInterface, 0, len(state.Phases))
	for _, p := range state.Phases {
		phases = append(phases, readline.PcItem(string(p)))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("/show"),
		readline.PcItem("/reset"),
		readline.PcItem("/help"),
		readline.PcItem("/prompt", strategies...),
		readline.PcItem("/generate", strategies...),
		readline.PcItem("/summary", phases...),
		readline.PcItem("exit"),
	)
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(filepath.Join(dir, "cyclelab"), 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "cyclelab", "lab_history")
}

// #endregion readline
