package replay

import (
	"log/slog"
	"math"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// DefaultTolerance is the absolute score difference still counted as a match.
const DefaultTolerance = 1e-9

// Result actions.
const (
	ActionMatch    = "match"
	ActionDrift    = "drift"
	ActionUnscored = "unscored" // case carried no expected score
)

// #region types
// Case is one recorded context with the score it is expected to produce.
type Case struct {
	ID             string
	Context        reward.Context
	Expected       *float64
	ExpectedAction string // expected gate action, "" to skip the check
}

// ReplayConfig bundles the gate config and tolerance for a run.
type ReplayConfig struct {
	GateConfig gate.GateConfig
	Tolerance  float64
}

// DefaultReplayConfig uses the default gate and DefaultTolerance.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		GateConfig: gate.DefaultGateConfig(),
		Tolerance:  DefaultTolerance,
	}
}

// ReplayResult captures the outcome of re-scoring one case.
type ReplayResult struct {
	ID         string
	Action     string // "match" | "drift" | "unscored"
	Score      float64
	Expected   *float64
	Delta      float64 // Score - Expected, 0 when unscored
	Evaluation eval.Evaluation
	Gate       gate.GateDecision
	GateDrift  bool // gate action differs from ExpectedAction
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases   int     `json:"total_cases" yaml:"total_cases"`
	Matches      int     `json:"matches" yaml:"matches"`
	Drifts       int     `json:"drifts" yaml:"drifts"`
	Unscored     int     `json:"unscored" yaml:"unscored"`
	GateAccepts  int     `json:"gate_accepts" yaml:"gate_accepts"`
	GateRejects  int     `json:"gate_rejects" yaml:"gate_rejects"`
	GateDrifts   int     `json:"gate_drifts" yaml:"gate_drifts"`
	MeanAbsDelta float64 `json:"mean_abs_delta" yaml:"mean_abs_delta"` // over scored cases
	MaxAbsDelta  float64 `json:"max_abs_delta" yaml:"max_abs_delta"`
}

// #endregion types

// #region replay
// Replay re-scores every case with fn, applies the gate, and compares the
// outcome with what the case expected. Operates entirely in-memory.
func Replay(fn reward.Function, cases []Case, config ReplayConfig, logger *slog.Logger) []ReplayResult {
	evaluator := eval.NewEvaluator(fn, logger)
	g := gate.NewGate(config.GateConfig)
	tol := config.Tolerance
	if tol < 0 || math.IsNaN(tol) {
		tol = DefaultTolerance
	}

	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		ev := evaluator.Evaluate(c.Context)
		decision := g.Evaluate(ev)

		r := ReplayResult{
			ID:         c.ID,
			Score:      ev.Score,
			Expected:   c.Expected,
			Evaluation: ev,
			Gate:       decision,
			GateDrift:  c.ExpectedAction != "" && c.ExpectedAction != decision.Action,
		}
		switch {
		case c.Expected == nil:
			r.Action = ActionUnscored
		default:
			r.Delta = ev.Score - *c.Expected
			if math.Abs(r.Delta) <= tol {
				r.Action = ActionMatch
			} else {
				r.Action = ActionDrift
			}
		}
		results = append(results, r)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	var sumAbs float64
	scored := 0
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionDrift:
			s.Drifts++
		case ActionUnscored:
			s.Unscored++
		}
		switch r.Gate.Action {
		case gate.ActionAccept:
			s.GateAccepts++
		case gate.ActionReject:
			s.GateRejects++
		}
		if r.GateDrift {
			s.GateDrifts++
		}
		if r.Expected != nil {
			d := math.Abs(r.Delta)
			sumAbs += d
			scored++
			if d > s.MaxAbsDelta {
				s.MaxAbsDelta = d
			}
		}
	}
	if scored > 0 {
		s.MeanAbsDelta = sumAbs / float64(scored)
	}
	return s
}

// #endregion replay

// #region history
// FromHistory turns recorded evaluations into cases expecting the recorded
// score and gate action, so a changed profile can be diffed against them.
func FromHistory(records []history.Record) []Case {
	cases := make([]Case, len(records))
	for i, rec := range records {
		score := rec.Score
		cases[i] = Case{
			ID:             rec.ID,
			Context:        rec.Context,
			Expected:       &score,
			ExpectedAction: rec.GateAction,
		}
	}
	return cases
}

// #endregion history
