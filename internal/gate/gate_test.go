package gate

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
)

func makeEval(score float64, components ...eval.ComponentScore) eval.Evaluation {
	return eval.Evaluation{ID: "ev-1", Function: "test", Score: score, Components: components}
}

func TestGateAcceptsInRange(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	d := g.Evaluate(makeEval(0.8))

	if d.Action != ActionAccept {
		t.Fatalf("expected accept, got %s: %s", d.Action, d.Reason)
	}
	if d.Vetoed || len(d.VetoSignals) != 0 {
		t.Fatal("expected no vetoes")
	}
	if math.Abs(d.Margin-0.8) > 1e-9 {
		t.Fatalf("expected margin 0.8, got %v", d.Margin)
	}
}

func TestGateVetoesNonFinite(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	d := g.Evaluate(makeEval(math.NaN()))

	if d.Action != ActionReject || !d.Vetoed {
		t.Fatalf("expected vetoed reject, got %+v", d)
	}
	if d.VetoSignals[0].Type != VetoNonFinite {
		t.Fatalf("expected non-finite veto, got %s", d.VetoSignals[0].Type)
	}
	// A NaN score must not also trip the range check
	if len(d.VetoSignals) != 1 {
		t.Fatalf("expected exactly one veto, got %d", len(d.VetoSignals))
	}
}

func TestGateVetoesOutOfRange(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	d := g.Evaluate(makeEval(1.6))

	if !d.Vetoed || d.VetoSignals[0].Type != VetoOutOfRange {
		t.Fatalf("expected out-of-range veto, got %+v", d)
	}
	if d.Margin != 0 {
		t.Fatalf("vetoed decisions carry no margin, got %v", d.Margin)
	}
}

func TestGateRangeNotEnforced(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.EnforceRange = false
	d := NewGate(cfg).Evaluate(makeEval(1.6))
	if d.Action != ActionAccept {
		t.Fatalf("expected accept with range disabled, got %s: %s", d.Action, d.Reason)
	}
}

func TestGateVetoesBadComponent(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	d := g.Evaluate(makeEval(0.5,
		eval.ComponentScore{Name: "ok", Score: 0.5, Weighted: 0.5},
		eval.ComponentScore{Name: "broken", Score: math.Inf(1), Weighted: math.Inf(1)},
	))

	if !d.Vetoed {
		t.Fatal("expected veto for non-finite component")
	}
	found := false
	for _, v := range d.VetoSignals {
		if v.Type == VetoComponentFailed {
			found = true
		}
	}
	if !found {
		t.Fatal("expected component veto signal")
	}
}

func TestGateRejectsBelowMinimum(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.MinScore = 0.6
	d := NewGate(cfg).Evaluate(makeEval(0.5))

	if d.Action != ActionReject {
		t.Fatalf("expected reject, got %s", d.Action)
	}
	if d.Vetoed {
		t.Fatal("threshold reject is not a veto")
	}
	if d.Margin >= 0 {
		t.Fatalf("expected negative margin, got %v", d.Margin)
	}
}

func TestGateAcceptsAtMinimum(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.MinScore = 0.5
	if d := NewGate(cfg).Evaluate(makeEval(0.5)); d.Action != ActionAccept {
		t.Fatalf("expected accept at threshold, got %s", d.Action)
	}
}
