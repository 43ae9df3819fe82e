package reward

import (
	"fmt"
	"math"
)

// #region bounds
// Bounds rescales raw scores into [0, 1].
type Bounds struct {
	Min float64
	Max float64
}

// UnitBounds is the [0, 1] range used by the built-in functions.
var UnitBounds = Bounds{Min: 0, Max: 1}

// NewBounds validates min < max and both finite.
func NewBounds(min, max float64) (Bounds, error) {
	if !finite(min) || !finite(max) {
		return Bounds{}, fmt.Errorf("bounds must be finite: [%v, %v]", min, max)
	}
	if min >= max {
		return Bounds{}, fmt.Errorf("bounds min %v must be below max %v", min, max)
	}
	return Bounds{Min: min, Max: max}, nil
}

// Normalize clamps (v - Min) / (Max - Min) to [0, 1].
// A degenerate range yields 0.5.
func (b Bounds) Normalize(v float64) float64 {
	if b.Max == b.Min {
		return 0.5
	}
	return clamp01((v - b.Min) / (b.Max - b.Min))
}

// #endregion bounds

// #region scalar
// RawFunc computes an unnormalized score.
type RawFunc func(ctx Context) float64

// Scalar is a single-signal reward function. It is immutable after
// construction and safe to share.
type Scalar struct {
	name        string
	description string
	bounds      *Bounds
	raw         RawFunc
}

// NewScalar builds a scalar function. bounds may be nil to skip
// normalization.
func NewScalar(name, description string, bounds *Bounds, raw RawFunc) *Scalar {
	var b *Bounds
	if bounds != nil {
		cp := *bounds
		b = &cp
	}
	return &Scalar{name: name, description: description, bounds: b, raw: raw}
}

func (s *Scalar) Name() string        { return s.name }
func (s *Scalar) Description() string { return s.description }

// Bounds returns the normalization range, if any.
func (s *Scalar) Bounds() (Bounds, bool) {
	if s.bounds == nil {
		return Bounds{}, false
	}
	return *s.bounds, true
}

// Raw returns the unnormalized score. A nil raw func scores 0.
func (s *Scalar) Raw(ctx Context) float64 {
	if s.raw == nil {
		return 0
	}
	return s.raw(ctx)
}

// Score returns the raw score passed through the bounds. Non-finite raw
// output scores 0.
func (s *Scalar) Score(ctx Context) float64 {
	v := s.Raw(ctx)
	if !finite(v) {
		return 0
	}
	if s.bounds != nil {
		return s.bounds.Normalize(v)
	}
	return v
}

// #endregion scalar

// #region helpers
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
