package builder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/danielpatrickdp/agent-rewards/internal/logging"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// #region errors
var (
	// ErrNotRegistered is returned when a composite names an unknown function.
	ErrNotRegistered = errors.New("reward function not registered")
	// ErrWeightCountMismatch is returned when names and weights differ in length.
	ErrWeightCountMismatch = errors.New("number of weights must match number of function names")
)

// #endregion errors

// #region builder-struct
// Builder is a registry of named reward functions. Registration is expected
// to happen once at startup; lookups are safe from concurrent goroutines.
type Builder struct {
	mu     sync.RWMutex
	funcs  map[string]reward.Function
	order  []string
	logger *slog.Logger
}

// New creates an empty builder. logger may be nil.
func New(logger *slog.Logger) *Builder {
	return &Builder{
		funcs:  make(map[string]reward.Function),
		logger: logging.OrDiscard(logger),
	}
}

// #endregion builder-struct

// #region register
// Register stores fn under name. An existing entry is overwritten and keeps
// its original position in Names. A nil fn is ignored.
func (b *Builder) Register(name string, fn reward.Function) *Builder {
	if fn == nil {
		b.logger.Warn("ignoring nil reward function", "name", name)
		return b
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.funcs[name]; exists {
		b.logger.Debug("overwriting reward function", "name", name, "function", fn.Name())
	} else {
		b.order = append(b.order, name)
	}
	b.funcs[name] = fn
	return b
}

// Remove deletes name. Removing an unknown name is a no-op.
func (b *Builder) Remove(name string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.funcs[name]; !exists {
		return b
	}
	delete(b.funcs, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return b
}

// #endregion register

// #region lookup
// Get returns the function registered under name.
func (b *Builder) Get(name string) (reward.Function, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.funcs[name]
	return fn, ok
}

// Names returns registered names in registration order.
func (b *Builder) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Build returns a copy of the registry.
func (b *Builder) Build() map[string]reward.Function {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]reward.Function, len(b.funcs))
	for k, v := range b.funcs {
		out[k] = v
	}
	return out
}

// #endregion lookup

// #region create-composite
// CompositeOption customizes CreateComposite.
type CompositeOption func(*compositeOptions)

type compositeOptions struct {
	name   string
	method reward.Method
}

// WithName overrides the composite name (default "composite").
func WithName(name string) CompositeOption {
	return func(o *compositeOptions) { o.name = name }
}

// WithMethod selects the combination method (default weighted_sum).
func WithMethod(m reward.Method) CompositeOption {
	return func(o *compositeOptions) { o.method = m }
}

// CreateComposite resolves names against the registry and pairs them with
// weights. nil weights means 1.0 each. Nothing is built if any name is
// unknown or the counts differ. Registered functions are not modified.
func (b *Builder) CreateComposite(names []string, weights []float64, opts ...CompositeOption) (*reward.Composite, error) {
	o := compositeOptions{name: "composite", method: reward.MethodWeightedSum}
	for _, opt := range opts {
		opt(&o)
	}

	if weights == nil {
		weights = make([]float64, len(names))
		for i := range weights {
			weights[i] = 1.0
		}
	}
	if len(weights) != len(names) {
		return nil, fmt.Errorf("%w: %d names, %d weights", ErrWeightCountMismatch, len(names), len(weights))
	}

	b.mu.RLock()
	components := make([]reward.Component, 0, len(names))
	for i, name := range names {
		fn, ok := b.funcs[name]
		if !ok {
			b.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
		}
		components = append(components, reward.Component{Name: name, Function: fn, Weight: weights[i]})
	}
	b.mu.RUnlock()

	description := "Composite of " + strings.Join(names, ", ")
	composite, err := reward.NewComposite(o.name, description, o.method, components)
	if err != nil {
		return nil, fmt.Errorf("create composite: %w", err)
	}
	return composite, nil
}

// #endregion create-composite
