package functions

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// #region custom
// ScoreFunc is caller-supplied scoring logic.
type ScoreFunc func(ctx reward.Context) (float64, error)

// Custom wraps caller logic as a scalar function. A nil fn, an error, or a
// non-finite result scores 0.5.
func Custom(name, description string, fn ScoreFunc) *reward.Scalar {
	if name == "" {
		name = "custom_reward"
	}
	if description == "" {
		description = "Custom reward function with configurable logic"
	}
	return reward.NewScalar(name, description, &reward.UnitBounds, func(ctx reward.Context) float64 {
		if fn == nil {
			return neutral
		}
		v, err := fn(ctx)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return neutral
		}
		return v
	})
}

// #endregion custom

// #region conditions
// Operator is the comparison used by a Condition.
type Operator string

const (
	OpEquals   Operator = "=="
	OpContains Operator = "in"
)

// ErrBadCondition is returned for rules that are neither "key == value" nor
// "key in value".
var ErrBadCondition = errors.New("malformed condition")

// Condition is one parsed rule. With OpEquals the formatted value of Key
// must equal Value; with OpContains it must contain Value.
type Condition struct {
	Key    string
	Op     Operator
	Value  string
	Reward float64
}

// ParseCondition parses "key == value" or "key in value".
func ParseCondition(expr string, rewardValue float64) (Condition, error) {
	var key, value string
	var op Operator
	switch {
	case strings.Contains(expr, "=="):
		key, value, _ = strings.Cut(expr, "==")
		op = OpEquals
	case strings.Contains(expr, " in "):
		key, value, _ = strings.Cut(expr, " in ")
		op = OpContains
	default:
		return Condition{}, fmt.Errorf("%w: %q", ErrBadCondition, expr)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return Condition{}, fmt.Errorf("%w: empty key in %q", ErrBadCondition, expr)
	}
	if math.IsNaN(rewardValue) || math.IsInf(rewardValue, 0) {
		return Condition{}, fmt.Errorf("%w: non-finite reward for %q", ErrBadCondition, expr)
	}
	return Condition{Key: key, Op: op, Value: value, Reward: rewardValue}, nil
}

// Matches resolves Key in agent_state, then metadata. A key found in
// agent_state is never looked up in metadata.
func (c Condition) Matches(ctx reward.Context) bool {
	formatted, ok := ctx.AgentState.Format(c.Key)
	if !ok {
		formatted, ok = ctx.Metadata.Format(c.Key)
	}
	if !ok {
		return false
	}
	switch c.Op {
	case OpEquals:
		return formatted == c.Value
	case OpContains:
		return strings.Contains(formatted, c.Value)
	}
	return false
}

// #endregion conditions

// #region conditional
// Conditional returns the reward of the first matching condition, or
// defaultReward when none match.
func Conditional(name string, conditions []Condition, defaultReward float64) *reward.Scalar {
	if name == "" {
		name = "conditional_reward"
	}
	rules := make([]Condition, len(conditions))
	copy(rules, conditions)
	return reward.NewScalar(name, "Reward function with conditional reward logic", &reward.UnitBounds,
		func(ctx reward.Context) float64 {
			for _, rule := range rules {
				if rule.Matches(ctx) {
					return rule.Reward
				}
			}
			return defaultReward
		},
	)
}

// #endregion conditional
