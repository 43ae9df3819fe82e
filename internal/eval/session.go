package eval

import (
	"log/slog"

	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// #region observer
// Observer is notified after every Session evaluation.
type Observer interface {
	ObserveEvaluation(ev Evaluation)
}

// #endregion observer

// #region session
// Session pairs an Evaluator with a score history. Use one Session per
// function whose performance you want to track over time.
type Session struct {
	evaluator *Evaluator
	metrics   *Metrics
	observers []Observer
}

// NewSession creates a session over fn. Observers may be nil.
func NewSession(fn reward.Function, logger *slog.Logger, observers ...Observer) *Session {
	s := &Session{
		evaluator: NewEvaluator(fn, logger),
		metrics:   NewMetrics(),
	}
	for _, o := range observers {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
	return s
}

// Metrics exposes the score history.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Evaluate scores ctx and commits the result.
func (s *Session) Evaluate(ctx reward.Context) Evaluation {
	return s.Commit(s.Score(ctx))
}

// Score evaluates ctx without touching the history. Pair it with Commit when
// the result must be persisted elsewhere before it counts.
func (s *Session) Score(ctx reward.Context) Evaluation {
	return s.evaluator.Evaluate(ctx)
}

// Commit appends ev to the history, stamps its 1-based sequence and notifies
// observers.
func (s *Session) Commit(ev Evaluation) Evaluation {
	ev.Sequence = s.metrics.Add(ev.Score)

	for _, o := range s.observers {
		o.ObserveEvaluation(ev)
	}
	return ev
}

// Summary reports performance over everything evaluated so far.
func (s *Session) Summary() Summary {
	return Summarize(s.evaluator.Function().Name(), s.metrics.Scores())
}

// CompareBaseline compares this session's scores against baseline scores.
func (s *Session) CompareBaseline(baseline []float64) *Comparison {
	return s.metrics.CompareBaseline(baseline)
}

// #endregion session
