package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shreeharini-261/ARIVAI-Research/internal/replay"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to cyclelab.db")
	last := flag.Int("last", 10, "number of most recent scenarios to export")
	phase := flag.String("phase", "", "only export scenarios in this phase")
	outPath := flag.String("out", "", "output fixture path (.yaml or .json)")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/cyclelab.db --out path/to/fixture.yaml [--last N] [--phase name]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *phase, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, last int, phaseArg, outPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var records []state.ScenarioRecord
	if phaseArg != "" {
		phase, err := state.ParsePhase(phaseArg)
		if err != nil {
			return err
		}
		records, err = store.RecentByPhase(phase, "", last)
		if err != nil {
			return err
		}
	} else {
		records, err = store.ListScenarios(last)
		if err != nil {
			return err
		}
	}
	if len(records) == 0 {
		return fmt.Errorf("no scenarios found")
	}

	f := &replay.Fixture{
		Description: fmt.Sprintf("Exported from %s (formula %s)", dbPath, state.FormulaVersion),
		Tolerance:   replay.DefaultTolerance,
	}
	// Oldest first so the fixture reads in submission order.
	skipped := 0
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.FormulaVersion != state.FormulaVersion {
			skipped++
			continue
		}
		f.Cases = append(f.Cases, replay.CaseFromRecord(rec))
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Exported %d scenarios to %s", len(f.Cases), outPath)
	if skipped > 0 {
		fmt.Printf(" (%d from other formula versions skipped)", skipped)
	}
	fmt.Println()
	return nil
}

// #endregion extract
