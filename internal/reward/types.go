package reward

import (
	"fmt"
	"math"
	"reflect"
)

// #region well-known-keys
// Keys read by the built-in functions. Callers may put anything else in the
// maps; unknown keys are ignored.
const (
	// agent_state
	KeyCompleted        = "completed"
	KeyCompletedSteps   = "completed_steps"
	KeyTotalSteps       = "total_steps"
	KeyGoals            = "goals"
	KeyAchievedGoals    = "achieved_goals"
	KeyGeneratedContent = "generated_content"
	KeyAvailableContext = "available_context"
	KeyUsedContext      = "used_context"

	// metadata
	KeyCompletionStatus = "completion_status"
	KeyRelevanceScore   = "relevance_score"
	KeyContentRelevance = "content_relevance"
	KeyKeywords         = "keywords"

	// result
	KeySuccess   = "success"
	KeyStatus    = "status"
	KeyRelevance = "relevance"
	KeyScore     = "score"
)

// #endregion well-known-keys

// #region values
// Values is an open string-keyed bag of signals. Accessors report ok=false
// for absent keys and for values of the wrong type.
type Values map[string]any

// Has reports whether key is present, regardless of its value.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// Bool returns the value of key if it is a bool.
func (v Values) Bool(key string) (bool, bool) {
	b, ok := v[key].(bool)
	return b, ok
}

// String returns the value of key if it is a string.
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

// Float returns the value of key as float64 for any numeric type.
// JSON-decoded numbers arrive as float64, literals as int; both are accepted.
func (v Values) Float(key string) (float64, bool) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Int returns the value of key truncated to int for any numeric type.
func (v Values) Int(key string) (int, bool) {
	f, ok := v.Float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Len returns the length of a slice, map, array or string value.
func (v Values) Len(key string) (int, bool) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return 0, false
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

// Strings returns the value of key as a string slice. Accepts []string and
// []any whose elements are all strings.
func (v Values) Strings(key string) ([]string, bool) {
	switch s := v[key].(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// Format renders the value of key the way condition rules compare it.
// Absent keys report ok=false.
func (v Values) Format(key string) (string, bool) {
	raw, ok := v[key]
	if !ok {
		return "", false
	}
	return fmt.Sprint(raw), true
}

func (v Values) clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// #endregion values

// #region context
// Context is one evaluation instance: the outcome of a single agent step.
// Build a fresh one per scored event with NewContext.
type Context struct {
	AgentState Values `json:"agent_state"`
	Action     string `json:"action,omitempty"`
	Result     Values `json:"result,omitempty"`
	Metadata   Values `json:"metadata,omitempty"`
}

// NewContext copies the given maps so later caller mutation does not leak
// into the context. Nil maps become empty.
func NewContext(agentState Values, action string, result Values, metadata Values) Context {
	return Context{
		AgentState: agentState.clone(),
		Action:     action,
		Result:     result.clone(),
		Metadata:   metadata.clone(),
	}
}

// #endregion context

// #region function
// Function maps a Context to one finite score.
type Function interface {
	Name() string
	Description() string
	Score(ctx Context) float64
}

// #endregion function
