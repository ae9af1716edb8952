package rules

import (
	"encoding/json"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

// State is the evaluated UI state of one parameter.
type State struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`

	// VisibleComputed and EnabledComputed mark parameters whose state is
	// decided at runtime by a companion member; the static result is then
	// only a placeholder.
	VisibleComputed bool `json:"visibleComputed,omitempty"`
	EnabledComputed bool `json:"enabledComputed,omitempty"`

	Error string `json:"error,omitempty"`
}

// Evaluate computes the state of every parameter. Missing values fall back
// to the descriptor defaults. A condition that fails to parse leaves the
// parameter visible and enabled and reports the problem in Error.
func Evaluate(params []script.Parameter, values map[string]any) []State {
	merged := make(map[string]any, len(params)+len(values))
	for _, p := range params {
		var v any
		if err := json.Unmarshal([]byte(p.DefaultValueJSON), &v); err == nil {
			merged[p.Name] = v
		}
	}
	for k, v := range values {
		merged[k] = v
	}

	out := make([]State, 0, len(params))
	for _, p := range params {
		st := State{
			Name:            p.Name,
			Visible:         true,
			Enabled:         true,
			VisibleComputed: p.HasVisibleFunction,
			EnabledComputed: p.HasEnabledFunction,
		}
		if p.VisibleWhen != "" {
			ok, err := Eval(p.VisibleWhen, merged)
			if err != nil {
				st.Error = err.Error()
			} else {
				st.Visible = ok
			}
		}
		if p.EnabledWhen != "" {
			ok, err := Eval(p.EnabledWhen, merged)
			if err != nil {
				st.Error = err.Error()
			} else {
				st.Enabled = ok
			}
		}
		out = append(out, st)
	}
	return out
}

// IsVisible evaluates the static visibility condition of p. Parameters
// without a condition, or with one that cannot be parsed, are visible.
func IsVisible(p script.Parameter, values map[string]any) bool {
	return holds(p.VisibleWhen, values)
}

// IsEnabled evaluates the static enablement condition of p.
func IsEnabled(p script.Parameter, values map[string]any) bool {
	return holds(p.EnabledWhen, values)
}

func holds(expr string, values map[string]any) bool {
	if expr == "" {
		return true
	}
	ok, err := Eval(expr, values)
	return err != nil || ok
}
