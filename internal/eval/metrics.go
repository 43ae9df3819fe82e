package eval

import (
	"math"
	"sort"
	"sync"
)

// #region metrics
// Metrics accumulates a score history and derives statistics from it.
type Metrics struct {
	mu     sync.Mutex
	scores []float64
}

// NewMetrics returns an empty history, optionally seeded with prior scores.
func NewMetrics(seed ...float64) *Metrics {
	m := &Metrics{}
	m.scores = append(m.scores, seed...)
	return m
}

// Add appends a score and returns the new history length.
func (m *Metrics) Add(score float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
	return len(m.scores)
}

// Scores returns a copy of the history.
func (m *Metrics) Scores() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.scores))
	copy(out, m.scores)
	return out
}

// Len returns the history length.
func (m *Metrics) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scores)
}

// Mean returns the average score, 0 when empty.
func (m *Metrics) Mean() float64 { return mean(m.Scores()) }

// Std returns the population standard deviation, 0 with fewer than 2 scores.
func (m *Metrics) Std() float64 {
	s := m.Scores()
	if len(s) < 2 {
		return 0
	}
	return std(s)
}

// Trend returns the least-squares slope of score over index.
func (m *Metrics) Trend() float64 { return slope(m.Scores()) }

// ImprovementRate is the fraction of consecutive pairs where the score rose.
func (m *Metrics) ImprovementRate() float64 { return improvementRate(m.Scores()) }

// Distribution returns descriptive statistics, nil when empty.
func (m *Metrics) Distribution() *Distribution { return distribution(m.Scores()) }

// CompareBaseline compares the history mean with a baseline mean.
// Returns nil when either side is empty.
func (m *Metrics) CompareBaseline(baseline []float64) *Comparison {
	s := m.Scores()
	if len(s) == 0 || len(baseline) == 0 {
		return nil
	}
	current := mean(s)
	base := mean(baseline)
	c := &Comparison{
		CurrentAverage:  current,
		BaselineAverage: base,
		Improvement:     current - base,
	}
	if base != 0 {
		c.ImprovementPercentage = (current - base) / base * 100
	}
	return c
}

// #endregion metrics

// #region summarize
// Summarize builds a performance summary from scores in recording order.
// Every statistic comes from the same slice, so callers holding a snapshot
// get a consistent view.
func Summarize(function string, scores []float64) Summary {
	sum := Summary{
		Function:         function,
		TotalEvaluations: len(scores),
		AverageReward:    mean(scores),
		RewardTrend:      slope(scores),
		ImprovementRate:  improvementRate(scores),
		Distribution:     distribution(scores),
	}
	if len(scores) >= 2 {
		sum.RewardStd = std(scores)
	}
	if len(scores) > 0 {
		sum.CurrentReward = scores[len(scores)-1]
	}
	return sum
}

// #endregion summarize

// #region stats-helpers
func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

func std(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	mu := mean(s)
	var ss float64
	for _, v := range s {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(s)))
}

// slope fits y = a + b*x with x = 0..n-1 and returns b.
func slope(s []float64) float64 {
	n := len(s)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := mean(s)
	var num, den float64
	for i, y := range s {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func improvementRate(s []float64) float64 {
	if len(s) < 2 {
		return 0
	}
	improvements := 0
	for i := 1; i < len(s); i++ {
		if s[i] > s[i-1] {
			improvements++
		}
	}
	return float64(improvements) / float64(len(s)-1)
}

func distribution(s []float64) *Distribution {
	if len(s) == 0 {
		return nil
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)
	return &Distribution{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean(s),
		Median: percentile(sorted, 50),
		Std:    std(s),
		Q25:    percentile(sorted, 25),
		Q75:    percentile(sorted, 75),
	}
}

// percentile uses linear interpolation between closest ranks on sorted input.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// #endregion stats-helpers
