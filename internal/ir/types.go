package ir

// Ruleset is one engine's declarative configuration. Empty mode fields take
// the engine defaults.
type Ruleset struct {
	Name                    string          `json:"name" yaml:"name"`
	Description             string          `json:"description,omitempty" yaml:"description,omitempty"`
	Combinator              string          `json:"combinator,omitempty" yaml:"combinator,omitempty"`
	Reversal                string          `json:"reversal,omitempty" yaml:"reversal,omitempty"`
	Necessity               string          `json:"necessity,omitempty" yaml:"necessity,omitempty"`
	Polarity                string          `json:"polarity,omitempty" yaml:"polarity,omitempty"`
	PolarityFromRequirement string          `json:"polarity_from_requirement,omitempty" yaml:"polarity_from_requirement,omitempty"`
	TriggerBehavior         string          `json:"trigger_behavior,omitempty" yaml:"trigger_behavior,omitempty"`
	Delay                   string          `json:"delay,omitempty" yaml:"delay,omitempty"` // Go duration, e.g. "250ms"
	Conditions              []ComponentSpec `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Events                  []ComponentSpec `json:"events,omitempty" yaml:"events,omitempty"`
}

// ComponentSpec names a condition or event kind and its parameters.
// Params values are JSON-compatible: string, bool, int, float64, []any or
// map[string]any.
type ComponentSpec struct {
	Kind   string         `json:"kind" yaml:"kind"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Label returns Name, or Kind when unnamed.
func (c ComponentSpec) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind
}

// canonicalValue renders r as plain JSON values, omitting empty fields, so
// that adding an optional field later keeps existing hashes stable.
func (r Ruleset) canonicalValue() map[string]any {
	obj := map[string]any{"name": r.Name}
	optional := map[string]string{
		"description":               r.Description,
		"combinator":                r.Combinator,
		"reversal":                  r.Reversal,
		"necessity":                 r.Necessity,
		"polarity":                  r.Polarity,
		"polarity_from_requirement": r.PolarityFromRequirement,
		"trigger_behavior":          r.TriggerBehavior,
		"delay":                     r.Delay,
	}
	for k, v := range optional {
		if v != "" {
			obj[k] = v
		}
	}
	if len(r.Conditions) > 0 {
		obj["conditions"] = componentValues(r.Conditions)
	}
	if len(r.Events) > 0 {
		obj["events"] = componentValues(r.Events)
	}
	return obj
}

func componentValues(specs []ComponentSpec) []any {
	out := make([]any, len(specs))
	for i, s := range specs {
		obj := map[string]any{"kind": s.Kind}
		if s.Name != "" {
			obj["name"] = s.Name
		}
		if len(s.Params) > 0 {
			obj["params"] = s.Params
		}
		out[i] = obj
	}
	return out
}
