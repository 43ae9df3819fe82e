package history

import (
	"time"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// #region record
// Record is one persisted evaluation together with the context it scored.
type Record struct {
	ID         string
	Function   string
	Action     string
	Score      float64
	Components []eval.ComponentScore
	Context    reward.Context
	GateAction string // "" when no gate ran
	CreatedAt  time.Time
}

// FromEvaluation builds a Record from an evaluation and its input context.
func FromEvaluation(ev eval.Evaluation, ctx reward.Context, gateAction string) Record {
	return Record{
		ID:         ev.ID,
		Function:   ev.Function,
		Action:     ev.Action,
		Score:      ev.Score,
		Components: ev.Components,
		Context:    ctx,
		GateAction: gateAction,
		CreatedAt:  ev.EvaluatedAt,
	}
}

// #endregion record
