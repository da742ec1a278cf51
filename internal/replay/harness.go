package replay

import (
	"fmt"
	"math"

	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region types

// Case is one scenario to recompute, with the vector it should produce.
// A nil Expected means the case is computed but not compared.
type Case struct {
	ID       string
	Input    state.ScenarioInput
	Expected *state.StateVector
	Basis    state.HormoneBasis // empty = not checked
}

// ReplayConfig controls comparison strictness.
type ReplayConfig struct {
	Tolerance float64
}

// DefaultTolerance is half a unit in the third decimal, the precision the
// vector is displayed and prompted at.
const DefaultTolerance = 0.0005

// DefaultReplayConfig returns the default comparison tolerance.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{Tolerance: DefaultTolerance}
}

// Replay actions.
const (
	ActionMatch    = "match"
	ActionDiff     = "diff"
	ActionComputed = "computed"
	ActionError    = "error"
	ActionStale    = "stale"
)

// ReplayResult captures the outcome of recomputing one case.
type ReplayResult struct {
	CaseID   string
	Action   string
	Reason   string
	Got      state.StateVector
	Expected *state.StateVector
	Basis    state.HormoneBasis
	MaxDiff  float64
	Field    string // label of the field with the largest difference
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total    int
	Matches  int
	Diffs    int
	Computed int
	Errors   int
	Stale    int
	MaxDiff  float64
}

// Failed reports whether any case diverged or could not be computed.
func (s ReplaySummary) Failed() bool {
	return s.Diffs > 0 || s.Errors > 0
}

// #endregion types

// #region replay

// Replay recomputes each case and compares it with its expected vector.
// Operates entirely in-memory.
func Replay(cases []Case, config ReplayConfig) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		results = append(results, replayOne(c, config.Tolerance))
	}
	return results
}

// ReplayRecords recomputes stored scenarios against the vectors persisted
// with them. Records written by another formula version are reported as
// stale rather than compared.
func ReplayRecords(records []state.ScenarioRecord, config ReplayConfig) []ReplayResult {
	results := make([]ReplayResult, 0, len(records))
	for _, rec := range records {
		if rec.FormulaVersion != "" && rec.FormulaVersion != state.FormulaVersion {
			results = append(results, ReplayResult{
				CaseID: rec.ID,
				Action: ActionStale,
				Reason: fmt.Sprintf("formula %s, current %s", rec.FormulaVersion, state.FormulaVersion),
			})
			continue
		}
		expected := rec.Vector
		results = append(results, replayOne(Case{
			ID:       rec.ID,
			Input:    rec.Input,
			Expected: &expected,
			Basis:    rec.Basis,
		}, config.Tolerance))
	}
	return results
}

func replayOne(c Case, tol float64) ReplayResult {
	r := ReplayResult{CaseID: c.ID, Expected: c.Expected}

	comp, err := state.Explain(c.Input)
	if err != nil {
		r.Action = ActionError
		r.Reason = err.Error()
		return r
	}
	r.Got = comp.Vector
	r.Basis = comp.Basis

	if c.Expected == nil {
		r.Action = ActionComputed
		return r
	}

	got := state.Fields(comp.Vector)
	want := state.Fields(*c.Expected)
	for i := range got {
		d := math.Abs(got[i].Value - want[i].Value)
		if d > r.MaxDiff {
			r.MaxDiff = d
			r.Field = got[i].Label
		}
	}

	switch {
	case c.Basis != "" && c.Basis != comp.Basis:
		r.Action = ActionDiff
		r.Reason = fmt.Sprintf("basis %s, expected %s", comp.Basis, c.Basis)
	case r.MaxDiff > tol:
		r.Action = ActionDiff
		r.Reason = fmt.Sprintf("%s off by %.4f", r.Field, r.MaxDiff)
	default:
		r.Action = ActionMatch
	}
	return r
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionDiff:
			s.Diffs++
		case ActionComputed:
			s.Computed++
		case ActionError:
			s.Errors++
		case ActionStale:
			s.Stale++
		}
		if r.MaxDiff > s.MaxDiff {
			s.MaxDiff = r.MaxDiff
		}
	}
	return s
}

// #endregion replay
