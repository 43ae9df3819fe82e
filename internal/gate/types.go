package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoNonFinite       VetoType = "non_finite_score"
	VetoOutOfRange      VetoType = "out_of_range"
	VetoComponentFailed VetoType = "component_non_finite"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type" yaml:"type"`
	Reason string   `json:"reason" yaml:"reason"`
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for gate decisions.
type GateConfig struct {
	MinScore     float64 // reject below this score
	EnforceRange bool    // veto scores outside [RangeMin, RangeMax]
	RangeMin     float64
	RangeMax     float64
}

// DefaultGateConfig accepts any finite score in [0, 1].
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinScore:     0,
		EnforceRange: true,
		RangeMin:     0,
		RangeMax:     1,
	}
}

// #endregion gate-config

// #region gate-decision
// Action values reported by the gate.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string       `json:"action" yaml:"action"` // "accept" | "reject"
	Reason      string       `json:"reason" yaml:"reason"`
	Vetoed      bool         `json:"vetoed" yaml:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty" yaml:"veto_signals,omitempty"` // non-empty if vetoed
	Margin      float64      `json:"margin" yaml:"margin"`                                 // score - MinScore, 0 when vetoed
}

// #endregion gate-decision
