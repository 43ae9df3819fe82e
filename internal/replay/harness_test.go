package replay

import (
	"math"
	"testing"
	"time"

	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// helper: scalar returning a fixed score regardless of context.
func constant(v float64) reward.Function {
	return reward.NewScalar("constant", "fixed score", nil, func(reward.Context) float64 { return v })
}

func expect(v float64) *float64 { return &v }

// 1. Exact score → match.
func TestReplay_Match(t *testing.T) {
	cases := []Case{{ID: "c1", Expected: expect(0.7)}}
	results := Replay(constant(0.7), cases, DefaultReplayConfig(), nil)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Action != ActionMatch {
		t.Errorf("expected match, got %s", results[0].Action)
	}
	if results[0].Delta != 0 {
		t.Errorf("expected zero delta, got %v", results[0].Delta)
	}
}

// 2. Score outside tolerance → drift with signed delta.
func TestReplay_Drift(t *testing.T) {
	cases := []Case{{ID: "c1", Expected: expect(0.5)}}
	results := Replay(constant(0.7), cases, DefaultReplayConfig(), nil)

	r := results[0]
	if r.Action != ActionDrift {
		t.Fatalf("expected drift, got %s", r.Action)
	}
	if math.Abs(r.Delta-0.2) > 1e-9 {
		t.Errorf("expected delta 0.2, got %v", r.Delta)
	}
}

// 3. Tolerance widens the match window.
func TestReplay_Tolerance(t *testing.T) {
	cfg := DefaultReplayConfig()
	cfg.Tolerance = 0.25
	results := Replay(constant(0.7), []Case{{ID: "c1", Expected: expect(0.5)}}, cfg, nil)
	if results[0].Action != ActionMatch {
		t.Errorf("expected match within tolerance, got %s", results[0].Action)
	}
}

// 4. No expected score → unscored, gate still runs.
func TestReplay_Unscored(t *testing.T) {
	results := Replay(constant(0.7), []Case{{ID: "c1"}}, DefaultReplayConfig(), nil)
	r := results[0]
	if r.Action != ActionUnscored {
		t.Errorf("expected unscored, got %s", r.Action)
	}
	if r.Gate.Action != gate.ActionAccept {
		t.Errorf("expected gate accept, got %s", r.Gate.Action)
	}
}

// 5. Gate action differing from the expected one is flagged.
func TestReplay_GateDrift(t *testing.T) {
	cfg := DefaultReplayConfig()
	cfg.GateConfig.MinScore = 0.9
	cases := []Case{{ID: "c1", Expected: expect(0.7), ExpectedAction: gate.ActionAccept}}

	r := Replay(constant(0.7), cases, cfg, nil)[0]
	if r.Gate.Action != gate.ActionReject {
		t.Fatalf("expected reject, got %s", r.Gate.Action)
	}
	if !r.GateDrift {
		t.Error("expected gate drift")
	}
	if r.Action != ActionMatch {
		t.Errorf("score still matches, got %s", r.Action)
	}
}

// 6. Empty input → empty output.
func TestReplay_Empty(t *testing.T) {
	results := Replay(constant(1), nil, DefaultReplayConfig(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
	s := Summarize(results)
	if s.TotalCases != 0 || s.MeanAbsDelta != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestSummarize_Deltas(t *testing.T) {
	results := []ReplayResult{
		{Action: ActionMatch, Expected: expect(0.5), Delta: 0},
		{Action: ActionDrift, Expected: expect(0.5), Delta: -0.3},
		{Action: ActionDrift, Expected: expect(0.5), Delta: 0.1},
		{Action: ActionUnscored},
	}
	s := Summarize(results)

	if s.TotalCases != 4 || s.Matches != 1 || s.Drifts != 2 || s.Unscored != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if math.Abs(s.MaxAbsDelta-0.3) > 1e-9 {
		t.Errorf("expected max delta 0.3, got %v", s.MaxAbsDelta)
	}
	if math.Abs(s.MeanAbsDelta-0.4/3) > 1e-9 {
		t.Errorf("expected mean delta %v, got %v", 0.4/3, s.MeanAbsDelta)
	}
}

func TestFromHistory(t *testing.T) {
	ctx := reward.NewContext(reward.Values{"completed": true}, "search", nil, nil)
	records := []history.Record{
		{ID: "r1", Function: "completion_reward", Score: 1, Context: ctx, GateAction: gate.ActionAccept, CreatedAt: time.Now()},
		{ID: "r2", Function: "completion_reward", Score: 0.5, Context: ctx},
	}

	cases := FromHistory(records)
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if *cases[0].Expected != 1 || cases[0].ExpectedAction != gate.ActionAccept {
		t.Errorf("unexpected case: %+v", cases[0])
	}

	results := Replay(constant(1), cases, DefaultReplayConfig(), nil)
	if results[0].Action != ActionMatch || results[1].Action != ActionDrift {
		t.Errorf("expected match then drift, got %s, %s", results[0].Action, results[1].Action)
	}
	if results[1].GateDrift {
		t.Error("empty recorded gate action must not count as drift")
	}
}
