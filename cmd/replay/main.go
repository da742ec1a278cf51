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
	dbPath := flag.String("db", "", "path to cyclelab.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture YAML or JSON (fixture mode)")
	limit := flag.Int("limit", 1000, "max scenarios to replay in DB mode")
	tolerance := flag.Float64("tolerance", 0, "override comparison tolerance")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/cyclelab.db [--limit N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/scenarios.yaml")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *tolerance)
	} else {
		exitCode = runDBMode(*dbPath, *limit, *tolerance)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runDBMode(dbPath string, limit int, tolerance float64) int {
	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	records, err := store.ListScenarios(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list scenarios: %v\n", err)
		return 2
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no scenarios found")
		return 2
	}

	config := replay.DefaultReplayConfig()
	if tolerance > 0 {
		config.Tolerance = tolerance
	}
	return printComparison(replay.ReplayRecords(records, config))
}

func runFixtureMode(path string, tolerance float64) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}

	config := f.Config()
	if tolerance > 0 {
		config.Tolerance = tolerance
	}
	return printComparison(replay.Replay(f.ReplayCases(), config))
}

// #endregion modes

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-38s| %-10s| %-9s| %s\n", "Case", "Basis", "MaxDiff", "Result")
	fmt.Printf("%-38s+%-10s+%-9s+%s\n",
		"--------------------------------------", "-----------", "----------", "--------")

	for _, r := range results {
		result := "OK"
		switch r.Action {
		case replay.ActionDiff:
			result = "DIFF " + r.Reason
		case replay.ActionError:
			result = "ERROR " + r.Reason
		case replay.ActionStale:
			result = "SKIP " + r.Reason
		case replay.ActionComputed:
			result = "-"
		}
		fmt.Printf("%-38s| %-10s| %-9.4f| %s\n", r.CaseID, r.Basis, r.MaxDiff, result)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d error, %d stale\n",
		s.Total, s.Matches, s.Diffs, s.Errors, s.Stale)

	if s.Failed() {
		return 1
	}
	return 0
}

// #endregion output
