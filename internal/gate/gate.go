package gate

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
)

// #region gate
// Gate decides whether an evaluation is acceptable.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the active thresholds.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate checks hard vetoes first, then the score threshold.
func (g *Gate) Evaluate(ev eval.Evaluation) GateDecision {
	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1. Aggregate must be finite
	if !finite(ev.Score) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNonFinite,
			Reason: fmt.Sprintf("score %v is not finite", ev.Score),
		})
	}

	// 2. Every component must be finite
	for _, c := range ev.Components {
		if !finite(c.Score) || !finite(c.Weighted) {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoComponentFailed,
				Reason: fmt.Sprintf("component %s scored %v", c.Name, c.Score),
			})
		}
	}

	// 3. Range check
	if g.config.EnforceRange && finite(ev.Score) &&
		(ev.Score < g.config.RangeMin || ev.Score > g.config.RangeMax) {
		vetoes = append(vetoes, VetoSignal{
			Type: VetoOutOfRange,
			Reason: fmt.Sprintf("score %.4f outside [%.4f, %.4f]",
				ev.Score, g.config.RangeMin, g.config.RangeMax),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      ActionReject,
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	// --- Threshold ---
	margin := ev.Score - g.config.MinScore
	if margin < 0 {
		return GateDecision{
			Action: ActionReject,
			Reason: fmt.Sprintf("score %.4f below minimum %.4f", ev.Score, g.config.MinScore),
			Margin: margin,
		}
	}

	return GateDecision{
		Action: ActionAccept,
		Reason: fmt.Sprintf("passed gate: score=%.4f", ev.Score),
		Margin: margin,
	}
}

// #endregion gate

// #region helpers
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
