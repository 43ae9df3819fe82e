package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/agent-rewards/internal/builder"
	"github.com/danielpatrickdp/agent-rewards/internal/functions"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"gopkg.in/yaml.v3"
)

// #region errors
var (
	ErrUnknownKind       = errors.New("unknown function kind")
	ErrDuplicateFunction = errors.New("duplicate function name")
	ErrNoComposite       = errors.New("profile defines no composite")
	ErrInvalidProfile    = errors.New("invalid profile")
)

// #endregion errors

// #region types
// Profile declares a set of reward functions, an optional composite over
// them, and gate thresholds.
type Profile struct {
	Name      string         `yaml:"name"`
	Functions []FunctionSpec `yaml:"functions"`
	Composite *CompositeSpec `yaml:"composite,omitempty"`
	Gate      *GateSpec      `yaml:"gate,omitempty"`
}

// FunctionSpec declares one registered function.
type FunctionSpec struct {
	Name        string          `yaml:"name"`
	Kind        string          `yaml:"kind"`
	Description string          `yaml:"description,omitempty"`
	Bounds      *BoundsSpec     `yaml:"bounds,omitempty"`         // signal
	Source      string          `yaml:"source,omitempty"`         // signal: agent_state|metadata|result
	Key         string          `yaml:"key,omitempty"`            // signal
	Invert      bool            `yaml:"invert,omitempty"`         // signal: lower raw is better
	Steps       int             `yaml:"required_steps,omitempty"` // step_completion
	Conditions  []ConditionSpec `yaml:"conditions,omitempty"`     // conditional
	Default     *float64        `yaml:"default,omitempty"`        // conditional, signal
}

// BoundsSpec is the YAML form of reward.Bounds.
type BoundsSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ConditionSpec is one "key == value" / "key in value" rule.
type ConditionSpec struct {
	When   string  `yaml:"when"`
	Reward float64 `yaml:"reward"`
}

// CompositeSpec declares the composite built from registered functions.
type CompositeSpec struct {
	Name       string          `yaml:"name,omitempty"`
	Method     string          `yaml:"method,omitempty"`
	Components []ComponentSpec `yaml:"components"`
}

// ComponentSpec references a registered function. A missing weight is 1.0.
type ComponentSpec struct {
	Name   string   `yaml:"name"`
	Weight *float64 `yaml:"weight,omitempty"`
}

// GateSpec overrides gate.DefaultGateConfig fields.
type GateSpec struct {
	MinScore     *float64 `yaml:"min_score,omitempty"`
	EnforceRange *bool    `yaml:"enforce_range,omitempty"`
	RangeMin     *float64 `yaml:"range_min,omitempty"`
	RangeMax     *float64 `yaml:"range_max,omitempty"`
}

// #endregion types

// #region load
// Load reads and parses a YAML profile.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile. Unknown fields are rejected.
func Parse(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// #endregion load

// #region default
// Default is the profile used when none is configured: completion and
// relevance combined 0.7 / 0.3.
func Default() *Profile {
	w := func(v float64) *float64 { return &v }
	return &Profile{
		Name: "default",
		Functions: []FunctionSpec{
			{Name: "completion", Kind: KindCompletion},
			{Name: "relevance", Kind: KindRelevance},
		},
		Composite: &CompositeSpec{
			Name:   "default",
			Method: string(reward.MethodWeightedSum),
			Components: []ComponentSpec{
				{Name: "completion", Weight: w(0.7)},
				{Name: "relevance", Weight: w(0.3)},
			},
		},
	}
}

// #endregion default

// #region build
// Builder registers every declared function in declaration order.
func (p *Profile) Builder(logger *slog.Logger) (*builder.Builder, error) {
	b := builder.New(logger)
	seen := make(map[string]bool, len(p.Functions))
	for i, spec := range p.Functions {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: function %d has no name", ErrInvalidProfile, i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFunction, spec.Name)
		}
		seen[spec.Name] = true

		fn, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", spec.Name, err)
		}
		b.Register(spec.Name, fn)
	}
	return b, nil
}

// BuildComposite builds the declared composite from b.
func (p *Profile) BuildComposite(b *builder.Builder) (*reward.Composite, error) {
	if p.Composite == nil {
		return nil, ErrNoComposite
	}
	method, err := reward.ParseMethod(p.Composite.Method)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}

	names := make([]string, len(p.Composite.Components))
	weights := make([]float64, len(p.Composite.Components))
	for i, c := range p.Composite.Components {
		names[i] = c.Name
		weights[i] = 1.0
		if c.Weight != nil {
			weights[i] = *c.Weight
		}
	}

	name := p.Composite.Name
	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = "composite"
	}
	return b.CreateComposite(names, weights, builder.WithName(name), builder.WithMethod(method))
}

// Resolve returns the function to score with: the composite when name is
// empty, otherwise the registered function called name.
func (p *Profile) Resolve(b *builder.Builder, name string) (reward.Function, error) {
	if name == "" {
		return p.BuildComposite(b)
	}
	fn, ok := b.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", builder.ErrNotRegistered, name)
	}
	return fn, nil
}

// GateConfig applies the profile's overrides to the default gate config.
func (p *Profile) GateConfig() gate.GateConfig {
	cfg := gate.DefaultGateConfig()
	if p.Gate == nil {
		return cfg
	}
	if p.Gate.MinScore != nil {
		cfg.MinScore = *p.Gate.MinScore
	}
	if p.Gate.EnforceRange != nil {
		cfg.EnforceRange = *p.Gate.EnforceRange
	}
	if p.Gate.RangeMin != nil {
		cfg.RangeMin = *p.Gate.RangeMin
	}
	if p.Gate.RangeMax != nil {
		cfg.RangeMax = *p.Gate.RangeMax
	}
	return cfg
}

// #endregion build

// #region kinds
// Function kinds understood by FunctionSpec.Build.
const (
	KindCompletion       = "completion"
	KindStepCompletion   = "step_completion"
	KindGoalAchievement  = "goal_achievement"
	KindRelevance        = "relevance"
	KindContentRelevance = "content_relevance"
	KindContextAwareness = "context_awareness"
	KindConditional      = "conditional"
	KindSignal           = "signal"
)

// Build constructs the reward function this entry describes. Fields that
// do not apply to the kind are rejected. A description overrides the
// built-in one.
func (s FunctionSpec) Build() (reward.Function, error) {
	if err := s.checkFields(); err != nil {
		return nil, err
	}
	fn, err := s.build()
	if err != nil {
		return nil, err
	}
	if s.Description != "" && s.Kind != KindSignal {
		fn = described{Function: fn, description: s.Description}
	}
	return fn, nil
}

func (s FunctionSpec) build() (reward.Function, error) {
	switch s.Kind {
	case KindCompletion:
		return functions.Completion(), nil
	case KindStepCompletion:
		steps := s.Steps
		if steps <= 0 {
			steps = 1
		}
		return functions.StepCompletion(steps), nil
	case KindGoalAchievement:
		return functions.GoalAchievement(), nil
	case KindRelevance:
		return functions.Relevance(), nil
	case KindContentRelevance:
		return functions.ContentRelevance(), nil
	case KindContextAwareness:
		return functions.ContextAwareness(), nil
	case KindConditional:
		return s.buildConditional()
	case KindSignal:
		return s.buildSignal()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
}

// checkFields rejects kind-specific fields set on another kind.
func (s FunctionSpec) checkFields() error {
	signal := s.Kind == KindSignal
	set := []struct {
		field string
		isSet bool
		ok    bool
	}{
		{"bounds", s.Bounds != nil, signal},
		{"source", s.Source != "", signal},
		{"key", s.Key != "", signal},
		{"invert", s.Invert, signal},
		{"required_steps", s.Steps != 0, s.Kind == KindStepCompletion},
		{"conditions", len(s.Conditions) > 0, s.Kind == KindConditional},
		{"default", s.Default != nil, signal || s.Kind == KindConditional},
	}
	for _, f := range set {
		if f.isSet && !f.ok {
			return fmt.Errorf("%w: %s does not apply to kind %q", ErrInvalidProfile, f.field, s.Kind)
		}
	}
	return nil
}

// described overrides a built-in function's description.
type described struct {
	reward.Function
	description string
}

func (d described) Description() string { return d.description }

func (s FunctionSpec) buildConditional() (reward.Function, error) {
	conds := make([]functions.Condition, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		cond, err := functions.ParseCondition(c.When, c.Reward)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	var def float64
	if s.Default != nil {
		def = *s.Default
	}
	return functions.Conditional(s.Name, conds, def), nil
}

// buildSignal reads one numeric key and normalizes it through bounds
// (default [0, 1]). Invert maps the top of the range to 0.
func (s FunctionSpec) buildSignal() (reward.Function, error) {
	if s.Key == "" {
		return nil, fmt.Errorf("%w: signal requires key", ErrInvalidProfile)
	}
	bounds := reward.UnitBounds
	if s.Bounds != nil {
		b, err := reward.NewBounds(s.Bounds.Min, s.Bounds.Max)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		bounds = b
	}

	var pick func(reward.Context) reward.Values
	switch s.Source {
	case "", "metadata":
		pick = func(c reward.Context) reward.Values { return c.Metadata }
	case "agent_state":
		pick = func(c reward.Context) reward.Values { return c.AgentState }
	case "result":
		pick = func(c reward.Context) reward.Values { return c.Result }
	default:
		return nil, fmt.Errorf("%w: unknown signal source %q", ErrInvalidProfile, s.Source)
	}

	fallback := bounds.Min
	if s.Default != nil {
		fallback = *s.Default
	}
	key, invert := s.Key, s.Invert
	description := s.Description
	if description == "" {
		description = fmt.Sprintf("Normalized %s.%s", sourceName(s.Source), key)
	}

	return reward.NewScalar(s.Name, description, &bounds, func(c reward.Context) float64 {
		v, ok := pick(c).Float(key)
		if !ok {
			v = fallback
		}
		if invert {
			return bounds.Min + bounds.Max - v
		}
		return v
	}), nil
}

func sourceName(s string) string {
	if s == "" {
		return "metadata"
	}
	return s
}

// #endregion kinds
