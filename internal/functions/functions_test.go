package functions

import (
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

const eps = 1e-9

func ctxWith(state, metadata, result reward.Values) reward.Context {
	return reward.NewContext(state, "", result, metadata)
}

// #region completion-tests
func TestCompletionCompletedFlagWins(t *testing.T) {
	fn := Completion()
	for _, status := range []string{"success", "partial", "failed", ""} {
		ctx := ctxWith(reward.Values{"completed": true}, reward.Values{"completion_status": status}, nil)
		if got := fn.Score(ctx); got != 1.0 {
			t.Errorf("status %q: got %v, want 1.0", status, got)
		}
	}
}

func TestCompletionStatusMapping(t *testing.T) {
	fn := Completion()
	tests := []struct {
		status string
		want   float64
	}{
		{"success", 1.0},
		{"partial", 0.5},
		{"failed", 0.0},
		{"unknown", 0.0},
	}
	for _, tt := range tests {
		ctx := ctxWith(reward.Values{"completed": false}, reward.Values{"completion_status": tt.status}, nil)
		if got := fn.Score(ctx); got != tt.want {
			t.Errorf("status %q: got %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCompletionNoSignalIsZero(t *testing.T) {
	if got := Completion().Score(reward.Context{}); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestCompletionNonBoolFlagIgnored(t *testing.T) {
	ctx := ctxWith(reward.Values{"completed": "yes"}, nil, nil)
	if got := Completion().Score(ctx); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestCompletionResultFallback(t *testing.T) {
	fn := Completion()
	tests := []struct {
		result reward.Values
		want   float64
	}{
		{reward.Values{"success": true}, 1.0},
		{reward.Values{"status": "completed"}, 1.0},
		{reward.Values{"status": "in_progress"}, 0.3},
		{reward.Values{"status": "queued"}, 0.0},
	}
	for _, tt := range tests {
		if got := fn.Score(ctxWith(nil, nil, tt.result)); got != tt.want {
			t.Errorf("result %v: got %v, want %v", tt.result, got, tt.want)
		}
	}
}

func TestCompletionIgnoresAction(t *testing.T) {
	fn := Completion()
	a := reward.NewContext(nil, "search", nil, reward.Values{"completion_status": "partial"})
	b := reward.NewContext(nil, "answer", nil, reward.Values{"completion_status": "partial"})
	if fn.Score(a) != fn.Score(b) {
		t.Fatal("score must not depend on the action label")
	}
}

func TestStepCompletion(t *testing.T) {
	fn := StepCompletion(4)
	tests := []struct {
		state reward.Values
		want  float64
	}{
		{reward.Values{"completed_steps": 2, "total_steps": 4}, 0.5},
		{reward.Values{"completed_steps": 1}, 0.25},
		{reward.Values{"completed_steps": 3, "total_steps": 0}, 0},
		{reward.Values{"completed_steps": 9, "total_steps": 3}, 1},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := fn.Score(ctxWith(tt.state, nil, nil)); math.Abs(got-tt.want) > eps {
			t.Errorf("state %v: got %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestGoalAchievement(t *testing.T) {
	fn := GoalAchievement()
	ctx := ctxWith(reward.Values{
		"goals":          []any{"a", "b", "c", "d"},
		"achieved_goals": []any{"a"},
	}, nil, nil)
	if got := fn.Score(ctx); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
	if got := fn.Score(reward.Context{}); got != 0 {
		t.Fatalf("no goals: got %v, want 0", got)
	}
}

// #endregion completion-tests

// #region relevance-tests
func TestRelevance(t *testing.T) {
	fn := Relevance()
	tests := []struct {
		name     string
		metadata reward.Values
		result   reward.Values
		want     float64
	}{
		{"metadata", reward.Values{"relevance_score": 0.8}, reward.Values{"relevance": 0.1}, 0.8},
		{"result relevance", nil, reward.Values{"relevance": 0.3, "score": 0.9}, 0.3},
		{"result score", nil, reward.Values{"score": 0.9}, 0.9},
		{"clamped", reward.Values{"relevance_score": 3.0}, nil, 1.0},
		{"neutral", nil, nil, 0.5},
	}
	for _, tt := range tests {
		if got := fn.Score(ctxWith(nil, tt.metadata, tt.result)); math.Abs(got-tt.want) > eps {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContentRelevance(t *testing.T) {
	fn := ContentRelevance()

	direct := ctxWith(nil, reward.Values{"content_relevance": 0.7}, nil)
	if got := fn.Score(direct); got != 0.7 {
		t.Errorf("direct: got %v, want 0.7", got)
	}

	kw := ctxWith(
		reward.Values{"generated_content": "The Go Scheduler multiplexes goroutines"},
		reward.Values{"keywords": []any{"go", "scheduler", "channel", "goroutines"}},
		nil,
	)
	if got := fn.Score(kw); got != 0.75 {
		t.Errorf("keywords: got %v, want 0.75", got)
	}

	if got := fn.Score(reward.Context{}); got != 0.5 {
		t.Errorf("neutral: got %v, want 0.5", got)
	}
}

func TestContextAwareness(t *testing.T) {
	fn := ContextAwareness()
	ctx := ctxWith(reward.Values{
		"available_context": map[string]any{"a": 1, "b": 2, "c": 3, "d": 4},
		"used_context":      map[string]any{"a": 1},
	}, nil, nil)
	if got := fn.Score(ctx); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
	if got := fn.Score(reward.Context{}); got != 0.5 {
		t.Fatalf("empty: got %v, want 0.5", got)
	}
}

// #endregion relevance-tests

// #region custom-tests
func TestCustom(t *testing.T) {
	ok := Custom("len", "", func(ctx reward.Context) (float64, error) {
		n, _ := ctx.AgentState.Len("items")
		return float64(n) / 10, nil
	})
	if got := ok.Score(ctxWith(reward.Values{"items": []any{1, 2, 3}}, nil, nil)); math.Abs(got-0.3) > eps {
		t.Errorf("got %v, want 0.3", got)
	}
	if ok.Name() != "len" {
		t.Errorf("name: got %q", ok.Name())
	}

	failing := Custom("", "", func(reward.Context) (float64, error) { return 0, errors.New("boom") })
	if got := failing.Score(reward.Context{}); got != 0.5 {
		t.Errorf("error: got %v, want 0.5", got)
	}
	if failing.Name() != "custom_reward" {
		t.Errorf("default name: got %q", failing.Name())
	}

	nan := Custom("nan", "", func(reward.Context) (float64, error) { return math.NaN(), nil })
	if got := nan.Score(reward.Context{}); got != 0.5 {
		t.Errorf("nan: got %v, want 0.5", got)
	}

	if got := Custom("nil", "", nil).Score(reward.Context{}); got != 0.5 {
		t.Errorf("nil fn: got %v, want 0.5", got)
	}
}

func TestParseCondition(t *testing.T) {
	c, err := ParseCondition(" phase == done ", 1)
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if c.Key != "phase" || c.Op != OpEquals || c.Value != "done" {
		t.Fatalf("got %+v", c)
	}

	c, err = ParseCondition("tools in search", 0.4)
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if c.Key != "tools" || c.Op != OpContains || c.Value != "search" {
		t.Fatalf("got %+v", c)
	}

	for _, bad := range []string{"phase", "== done", "  in x"} {
		if _, err := ParseCondition(bad, 1); !errors.Is(err, ErrBadCondition) {
			t.Errorf("%q: expected ErrBadCondition, got %v", bad, err)
		}
	}
}

func TestConditional(t *testing.T) {
	done, _ := ParseCondition("phase == done", 1.0)
	search, _ := ParseCondition("tools in search", 0.6)
	fn := Conditional("", []Condition{done, search}, 0.1)

	tests := []struct {
		name     string
		state    reward.Values
		metadata reward.Values
		want     float64
	}{
		{"first rule", reward.Values{"phase": "done", "tools": "search"}, nil, 1.0},
		{"second rule", reward.Values{"phase": "plan", "tools": "web_search,fetch"}, nil, 0.6},
		{"metadata lookup", nil, reward.Values{"phase": "done"}, 1.0},
		{"state shadows metadata", reward.Values{"phase": "plan"}, reward.Values{"phase": "done"}, 0.1},
		{"default", nil, nil, 0.1},
	}
	for _, tt := range tests {
		if got := fn.Score(ctxWith(tt.state, tt.metadata, nil)); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConditionFormatsNonStrings(t *testing.T) {
	c, _ := ParseCondition("completed == true", 1)
	if !c.Matches(ctxWith(reward.Values{"completed": true}, nil, nil)) {
		t.Fatal("expected bool to format as true")
	}
	n, _ := ParseCondition("retries == 2", 1)
	if !n.Matches(ctxWith(reward.Values{"retries": 2}, nil, nil)) {
		t.Fatal("expected int to format as 2")
	}
}

// #endregion custom-tests

func TestIdempotent(t *testing.T) {
	ctx := ctxWith(
		reward.Values{"completed_steps": 1, "total_steps": 3, "generated_content": "alpha beta"},
		reward.Values{"completion_status": "partial", "keywords": []any{"alpha", "gamma"}},
		nil,
	)
	for _, fn := range []reward.Function{Completion(), StepCompletion(1), Relevance(), ContentRelevance(), ContextAwareness()} {
		if a, b := fn.Score(ctx), fn.Score(ctx); a != b {
			t.Errorf("%s: %v != %v", fn.Name(), a, b)
		}
	}
}
