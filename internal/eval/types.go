package eval

import "time"

// #region component-score
// ComponentScore captures one composite child's contribution.
type ComponentScore struct {
	Name     string  `json:"name" yaml:"name"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Score    float64 `json:"score" yaml:"score"`       // unweighted
	Weighted float64 `json:"weighted" yaml:"weighted"` // Weight * Score
}

// #endregion component-score

// #region evaluation
// Evaluation is the structured result of scoring one context.
type Evaluation struct {
	ID          string           `json:"id" yaml:"id"`
	Function    string           `json:"function" yaml:"function"`
	Action      string           `json:"action,omitempty" yaml:"action,omitempty"`
	Score       float64          `json:"score" yaml:"score"`
	Method      string           `json:"method,omitempty" yaml:"method,omitempty"` // set for composites
	Components  []ComponentScore `json:"components,omitempty" yaml:"components,omitempty"`
	Sequence    int              `json:"sequence,omitempty" yaml:"sequence,omitempty"` // 1-based, set by Session
	EvaluatedAt time.Time        `json:"evaluated_at" yaml:"evaluated_at"`
}

// ComponentSum returns the sum of weighted component scores.
func (e Evaluation) ComponentSum() float64 {
	var s float64
	for _, c := range e.Components {
		s += c.Weighted
	}
	return s
}

// #endregion evaluation

// #region summary
// Distribution holds descriptive statistics over recorded scores.
type Distribution struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Std    float64 `json:"std" yaml:"std"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Q75    float64 `json:"q75" yaml:"q75"`
}

// Summary is a performance report for one evaluated function.
type Summary struct {
	Function         string        `json:"function_name" yaml:"function_name"`
	TotalEvaluations int           `json:"total_evaluations" yaml:"total_evaluations"`
	CurrentReward    float64       `json:"current_reward" yaml:"current_reward"`
	AverageReward    float64       `json:"average_reward" yaml:"average_reward"`
	RewardStd        float64       `json:"reward_std" yaml:"reward_std"`
	RewardTrend      float64       `json:"reward_trend" yaml:"reward_trend"`
	ImprovementRate  float64       `json:"improvement_rate" yaml:"improvement_rate"`
	Distribution     *Distribution `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// Comparison reports current performance against a baseline.
type Comparison struct {
	CurrentAverage        float64 `json:"current_average" yaml:"current_average"`
	BaselineAverage       float64 `json:"baseline_average" yaml:"baseline_average"`
	Improvement           float64 `json:"improvement" yaml:"improvement"`
	ImprovementPercentage float64 `json:"improvement_percentage" yaml:"improvement_percentage"`
}

// #endregion summary
