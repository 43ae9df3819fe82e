package reward

import (
	"errors"
	"fmt"
	"strings"
)

// #region method
// Method selects how weighted component scores are combined.
type Method string

const (
	MethodWeightedSum Method = "weighted_sum"
	MethodAverage     Method = "average"
	MethodMin         Method = "min"
	MethodMax         Method = "max"
)

// ParseMethod maps a name to a Method. Empty selects weighted_sum.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodWeightedSum, nil
	case MethodWeightedSum, MethodAverage, MethodMin, MethodMax:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// #endregion method

// #region errors
var (
	ErrUnknownMethod = errors.New("unknown combination method")
	ErrNilFunction   = errors.New("nil reward function")
	ErrBadWeight     = errors.New("weight must be finite")
)

// #endregion errors

// #region composite
// Component is one weighted child of a Composite.
type Component struct {
	Name     string
	Function Function
	Weight   float64
}

// Composite combines weighted child functions. Weights are used literally:
// they are not normalized and need not sum to 1.
type Composite struct {
	name        string
	description string
	method      Method
	components  []Component
}

// NewComposite validates components and method. Component order is
// preserved; duplicate names are allowed.
func NewComposite(name, description string, method Method, components []Component) (*Composite, error) {
	if method == "" {
		method = MethodWeightedSum
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	cs := make([]Component, len(components))
	for i, c := range components {
		if c.Function == nil {
			return nil, fmt.Errorf("component %d (%s): %w", i, c.Name, ErrNilFunction)
		}
		if !finite(c.Weight) {
			return nil, fmt.Errorf("component %d (%s): %w", i, c.Name, ErrBadWeight)
		}
		if c.Name == "" {
			c.Name = c.Function.Name()
		}
		cs[i] = c
	}
	return &Composite{name: name, description: description, method: method, components: cs}, nil
}

func (c *Composite) Name() string        { return c.name }
func (c *Composite) Description() string { return c.description }
func (c *Composite) Method() Method      { return c.method }

// Components returns a copy of the children in insertion order.
func (c *Composite) Components() []Component {
	out := make([]Component, len(c.components))
	copy(out, c.components)
	return out
}

// WeightSum returns the literal sum of component weights.
func (c *Composite) WeightSum() float64 {
	var sum float64
	for _, comp := range c.components {
		sum += comp.Weight
	}
	return sum
}

// Score evaluates every child in order and combines weight*score.
// An empty composite scores 0.
func (c *Composite) Score(ctx Context) float64 {
	if len(c.components) == 0 {
		return 0
	}
	weighted := make([]float64, len(c.components))
	for i, comp := range c.components {
		weighted[i] = comp.Weight * comp.Function.Score(ctx)
	}
	return Combine(c.method, weighted)
}

// Scores returns each child's unweighted score, in order.
func (c *Composite) Scores(ctx Context) []float64 {
	out := make([]float64, len(c.components))
	for i, comp := range c.components {
		out[i] = comp.Function.Score(ctx)
	}
	return out
}

// #endregion composite

// #region combine
// Combine reduces weighted scores with the given method. Unknown methods
// fall back to weighted_sum; NewComposite rejects them before this point.
// A result that overflows to a non-finite value is 0, as for Scalar.
func Combine(method Method, weighted []float64) float64 {
	if len(weighted) == 0 {
		return 0
	}
	var out float64
	switch method {
	case MethodAverage:
		out = sum(weighted) / float64(len(weighted))
	case MethodMin:
		out = weighted[0]
		for _, v := range weighted[1:] {
			if v < out {
				out = v
			}
		}
	case MethodMax:
		out = weighted[0]
		for _, v := range weighted[1:] {
			if v > out {
				out = v
			}
		}
	default:
		out = sum(weighted)
	}
	if !finite(out) {
		return 0
	}
	return out
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

// #endregion combine
