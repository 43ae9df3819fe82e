package metrics

import (
	"sync"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for reward evaluations.
type Metrics struct {
	evaluations    *prometheus.CounterVec
	scores         *prometheus.HistogramVec
	componentScore *prometheus.HistogramVec
	gateDecisions  *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns a Metrics instance registered with the global registry.
// Collectors are created once so repeated callers do not panic on duplicate
// registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// scoreBuckets covers the [0, 1] range built-in functions produce, with
// headroom for composites whose weights do not sum to 1.
var scoreBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1, 1.5, 2}

// MustNew constructs Metrics on reg. Registration errors panic, as promauto
// does.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_rewards",
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Number of reward evaluations performed.",
		},
		[]string{"function"},
	)
	scores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agent_rewards",
			Subsystem: "evaluator",
			Name:      "score",
			Help:      "Distribution of aggregate reward scores.",
			Buckets:   scoreBuckets,
		},
		[]string{"function"},
	)
	componentScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agent_rewards",
			Subsystem: "evaluator",
			Name:      "component_score",
			Help:      "Distribution of unweighted composite component scores.",
			Buckets:   scoreBuckets,
		},
		[]string{"function", "component"},
	)
	gateDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_rewards",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Gate decisions by action and first veto type.",
		},
		[]string{"function", "action", "veto"},
	)

	reg.MustRegister(evaluations, scores, componentScore, gateDecisions)

	return &Metrics{
		evaluations:    evaluations,
		scores:         scores,
		componentScore: componentScore,
		gateDecisions:  gateDecisions,
	}
}

// ObserveEvaluation records one evaluation. Satisfies eval.Observer.
func (m *Metrics) ObserveEvaluation(ev eval.Evaluation) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(ev.Function).Inc()
	m.scores.WithLabelValues(ev.Function).Observe(ev.Score)
	for _, c := range ev.Components {
		m.componentScore.WithLabelValues(ev.Function, c.Name).Observe(c.Score)
	}
}

// ObserveDecision records one gate decision.
func (m *Metrics) ObserveDecision(function string, d gate.GateDecision) {
	if m == nil {
		return
	}
	veto := "none"
	if len(d.VetoSignals) > 0 {
		veto = string(d.VetoSignals[0].Type)
	}
	m.gateDecisions.WithLabelValues(function, d.Action, veto).Inc()
}
