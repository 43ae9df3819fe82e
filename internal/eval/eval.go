package eval

import (
	"log/slog"
	"math"
	"time"

	"github.com/danielpatrickdp/agent-rewards/internal/logging"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"github.com/google/uuid"
)

// weightSumTolerance bounds how far composite weights may drift from 1.0
// before Evaluate logs a warning.
const weightSumTolerance = 1e-6

// #region evaluator
// Evaluator runs a reward function and reports the per-component breakdown
// when the function is a composite. It holds no state besides the function.
type Evaluator struct {
	fn     reward.Function
	logger *slog.Logger
	now    func() time.Time
}

// NewEvaluator wraps fn. logger may be nil.
func NewEvaluator(fn reward.Function, logger *slog.Logger) *Evaluator {
	return &Evaluator{fn: fn, logger: logging.OrDiscard(logger), now: time.Now}
}

// Function returns the wrapped function.
func (e *Evaluator) Function() reward.Function {
	return e.fn
}

// #endregion evaluator

// #region evaluate
// Evaluate scores ctx. For composites every child is re-invoked on its own to
// fill Components; the breakdown never changes Score.
func (e *Evaluator) Evaluate(ctx reward.Context) Evaluation {
	score := e.fn.Score(ctx)

	ev := Evaluation{
		ID:          uuid.New().String(),
		Function:    e.fn.Name(),
		Action:      ctx.Action,
		Score:       score,
		EvaluatedAt: e.now().UTC(),
	}

	if composite, ok := e.fn.(*reward.Composite); ok {
		ev.Method = string(composite.Method())
		ev.Components = breakdown(composite, ctx)

		if ws := composite.WeightSum(); math.Abs(ws-1.0) > weightSumTolerance {
			e.logger.Warn("composite weights do not sum to 1",
				"function", ev.Function, "weight_sum", ws)
		}
	}

	e.logger.Debug("reward evaluated",
		"id", ev.ID, "function", ev.Function, "score", ev.Score, "components", len(ev.Components))
	return ev
}

func breakdown(c *reward.Composite, ctx reward.Context) []ComponentScore {
	comps := c.Components()
	out := make([]ComponentScore, len(comps))
	for i, comp := range comps {
		s := comp.Function.Score(ctx)
		w := comp.Weight * s
		if math.IsInf(w, 0) || math.IsNaN(w) {
			w = 0
		}
		out[i] = ComponentScore{
			Name:     comp.Name,
			Weight:   comp.Weight,
			Score:    s,
			Weighted: w,
		}
	}
	return out
}

// #endregion evaluate
