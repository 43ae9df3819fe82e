package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Function    string        `json:"function,omitempty"` // registered name, "" for the profile composite
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureConfig mirrors ReplayConfig with JSON tags. Unset fields keep the
// base values passed to ToReplayConfig.
type FixtureConfig struct {
	Tolerance  *float64          `json:"tolerance,omitempty"`
	GateConfig FixtureGateConfig `json:"gate_config"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MinScore     *float64 `json:"min_score,omitempty"`
	EnforceRange *bool    `json:"enforce_range,omitempty"`
	RangeMin     *float64 `json:"range_min,omitempty"`
	RangeMax     *float64 `json:"range_max,omitempty"`
}

// FixtureCase is one context plus its expectations.
type FixtureCase struct {
	ID             string        `json:"id"`
	AgentState     reward.Values `json:"agent_state"`
	Action         string        `json:"action,omitempty"`
	Result         reward.Values `json:"result,omitempty"`
	Metadata       reward.Values `json:"metadata,omitempty"`
	ExpectedScore  *float64      `json:"expected_score,omitempty"`
	ExpectedAction string        `json:"expected_action,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		ID:             fc.ID,
		Context:        reward.NewContext(fc.AgentState, fc.Action, fc.Result, fc.Metadata),
		Expected:       fc.ExpectedScore,
		ExpectedAction: fc.ExpectedAction,
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	cases := make([]Case, len(f.Cases))
	for i := range f.Cases {
		cases[i] = f.Cases[i].ToCase()
	}
	return cases
}

// ToReplayConfig applies the fixture's overrides on top of base, which is
// usually the active profile's gate config.
func (fc *FixtureConfig) ToReplayConfig(base gate.GateConfig) ReplayConfig {
	cfg := ReplayConfig{GateConfig: base, Tolerance: DefaultTolerance}
	if fc.Tolerance != nil {
		cfg.Tolerance = *fc.Tolerance
	}
	g := &cfg.GateConfig
	if fc.GateConfig.MinScore != nil {
		g.MinScore = *fc.GateConfig.MinScore
	}
	if fc.GateConfig.EnforceRange != nil {
		g.EnforceRange = *fc.GateConfig.EnforceRange
	}
	if fc.GateConfig.RangeMin != nil {
		g.RangeMin = *fc.GateConfig.RangeMin
	}
	if fc.GateConfig.RangeMax != nil {
		g.RangeMax = *fc.GateConfig.RangeMax
	}
	return cfg
}

// #endregion fixture-loader
