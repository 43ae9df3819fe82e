package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/agent-rewards/internal/builder"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `
name: research-agent
functions:
  - name: completion
    kind: completion
  - name: relevance
    kind: relevance
  - name: steps
    kind: step_completion
    required_steps: 4
  - name: mode
    kind: conditional
    conditions:
      - when: "mode == expert"
        reward: 1.0
      - when: "mode in novice"
        reward: 0.4
    default: 0.1
  - name: latency
    kind: signal
    source: metadata
    key: latency_ms
    invert: true
    bounds: {min: 0, max: 1000}
composite:
  name: research
  method: weighted_sum
  components:
    - name: completion
      weight: 0.6
    - name: relevance
      weight: 0.4
gate:
  min_score: 0.5
`

func TestParseAndBuild(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)
	assert.Equal(t, "research-agent", p.Name)
	require.Len(t, p.Functions, 5)

	b, err := p.Builder(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"completion", "relevance", "steps", "mode", "latency"}, b.Names())

	c, err := p.BuildComposite(b)
	require.NoError(t, err)
	assert.Equal(t, "research", c.Name())
	assert.Equal(t, reward.MethodWeightedSum, c.Method())

	ctx := reward.NewContext(
		reward.Values{"completed": true},
		"search",
		nil,
		reward.Values{"relevance_score": 0.7},
	)
	assert.InDelta(t, 0.88, c.Score(ctx), 1e-9)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nfunctionz: []\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Functions)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "research-agent", p.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want error
	}{
		{
			name: "unknown kind",
			p:    Profile{Functions: []FunctionSpec{{Name: "x", Kind: "magic"}}},
			want: ErrUnknownKind,
		},
		{
			name: "duplicate",
			p: Profile{Functions: []FunctionSpec{
				{Name: "x", Kind: KindCompletion},
				{Name: "x", Kind: KindRelevance},
			}},
			want: ErrDuplicateFunction,
		},
		{
			name: "missing name",
			p:    Profile{Functions: []FunctionSpec{{Kind: KindCompletion}}},
			want: ErrInvalidProfile,
		},
		{
			name: "signal without key",
			p:    Profile{Functions: []FunctionSpec{{Name: "s", Kind: KindSignal}}},
			want: ErrInvalidProfile,
		},
		{
			name: "signal bad bounds",
			p: Profile{Functions: []FunctionSpec{{
				Name: "s", Kind: KindSignal, Key: "k", Bounds: &BoundsSpec{Min: 1, Max: 1},
			}}},
			want: ErrInvalidProfile,
		},
		{
			name: "key on completion",
			p:    Profile{Functions: []FunctionSpec{{Name: "c", Kind: KindCompletion, Key: "k"}}},
			want: ErrInvalidProfile,
		},
		{
			name: "required_steps on relevance",
			p:    Profile{Functions: []FunctionSpec{{Name: "r", Kind: KindRelevance, Steps: 3}}},
			want: ErrInvalidProfile,
		},
		{
			name: "conditions on signal",
			p: Profile{Functions: []FunctionSpec{{
				Name: "s", Kind: KindSignal, Key: "k",
				Conditions: []ConditionSpec{{When: "a == b", Reward: 1}},
			}}},
			want: ErrInvalidProfile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Builder(nil)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConditionalFromProfile(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)
	b, err := p.Builder(nil)
	require.NoError(t, err)

	fn, err := p.Resolve(b, "mode")
	require.NoError(t, err)

	score := func(mode string) float64 {
		return fn.Score(reward.NewContext(reward.Values{"mode": mode}, "", nil, nil))
	}
	assert.Equal(t, 1.0, score("expert"))
	assert.Equal(t, 0.4, score("novice-plus"))
	assert.Equal(t, 0.1, score("guru"))
}

func TestSignalInvert(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)
	b, err := p.Builder(nil)
	require.NoError(t, err)

	fn, ok := b.Get("latency")
	require.True(t, ok)

	score := func(ms float64) float64 {
		return fn.Score(reward.NewContext(nil, "", nil, reward.Values{"latency_ms": ms}))
	}
	assert.InDelta(t, 1.0, score(0), 1e-9)
	assert.InDelta(t, 0.75, score(250), 1e-9)
	assert.InDelta(t, 0.0, score(5000), 1e-9)
}

func TestResolve(t *testing.T) {
	p := Default()
	b, err := p.Builder(nil)
	require.NoError(t, err)

	fn, err := p.Resolve(b, "")
	require.NoError(t, err)
	assert.Equal(t, "default", fn.Name())

	_, err = p.Resolve(b, "nope")
	require.ErrorIs(t, err, builder.ErrNotRegistered)
}

func TestCompositeErrors(t *testing.T) {
	p := Profile{Functions: []FunctionSpec{{Name: "a", Kind: KindCompletion}}}
	b, err := p.Builder(nil)
	require.NoError(t, err)

	_, err = p.BuildComposite(b)
	require.ErrorIs(t, err, ErrNoComposite)

	p.Composite = &CompositeSpec{Method: "median", Components: []ComponentSpec{{Name: "a"}}}
	_, err = p.BuildComposite(b)
	require.ErrorIs(t, err, reward.ErrUnknownMethod)

	p.Composite = &CompositeSpec{Components: []ComponentSpec{{Name: "b"}}}
	_, err = p.BuildComposite(b)
	require.ErrorIs(t, err, builder.ErrNotRegistered)
}

func TestCompositeDefaultWeight(t *testing.T) {
	p := Profile{
		Functions: []FunctionSpec{{Name: "a", Kind: KindCompletion}},
		Composite: &CompositeSpec{Components: []ComponentSpec{{Name: "a"}}},
	}
	b, err := p.Builder(nil)
	require.NoError(t, err)
	c, err := p.BuildComposite(b)
	require.NoError(t, err)
	assert.Equal(t, "composite", c.Name())
	assert.Equal(t, 1.0, c.WeightSum())
}

func TestGateConfig(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)

	cfg := p.GateConfig()
	assert.Equal(t, 0.5, cfg.MinScore)
	assert.True(t, cfg.EnforceRange)
	assert.Equal(t, 0.0, cfg.RangeMin)
	assert.Equal(t, 1.0, cfg.RangeMax)

	assert.Equal(t, 0.0, Default().GateConfig().MinScore)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	p, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestDescriptionOverridesBuiltin(t *testing.T) {
	p, err := Parse([]byte(`
functions:
  - name: done
    kind: completion
    description: Finished the research task
  - name: plain
    kind: completion
`))
	require.NoError(t, err)
	b, err := p.Builder(nil)
	require.NoError(t, err)

	done, ok := b.Get("done")
	require.True(t, ok)
	assert.Equal(t, "Finished the research task", done.Description())
	assert.Equal(t, "completion_reward", done.Name())
	assert.Equal(t, 1.0, done.Score(reward.NewContext(reward.Values{"completed": true}, "", nil, nil)))

	plain, ok := b.Get("plain")
	require.True(t, ok)
	assert.NotEqual(t, "Finished the research task", plain.Description())
	assert.NotEmpty(t, plain.Description())
}
