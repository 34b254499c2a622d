package compiler

import (
	"fmt"

	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/ir"
)

// Built is an engine plus its components keyed by ComponentSpec.Label.
// Unnamed components of the same kind share a label; the last one wins.
type Built struct {
	Engine     *engine.Engine
	Hash       string
	Conditions map[string]engine.Condition
	Events     map[string]engine.Event
}

// Build validates r and constructs an engine named after it. opts are
// applied after the ruleset's own options, so they may add observers, a
// logger or an ID generator. The engine is not initialized.
func Build(r *ir.Ruleset, reg *Registry, opts ...engine.Option) (*Built, error) {
	if errs := Validate(r, reg); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	hash, err := ir.RulesetHash(*r)
	if err != nil {
		return nil, err
	}

	cfg, _ := configFromRuleset(r)
	b := &Built{
		Hash:       hash,
		Conditions: make(map[string]engine.Condition),
		Events:     make(map[string]engine.Event),
	}

	conds := make([]engine.Condition, 0, len(r.Conditions))
	for i, spec := range r.Conditions {
		c, err := reg.conditions[spec.Kind](spec, reg.deps)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		conds = append(conds, c)
		b.Conditions[spec.Label()] = c
	}

	evs := make([]engine.Event, 0, len(r.Events))
	for i, spec := range r.Events {
		ev, err := reg.events[spec.Kind](spec, reg.deps)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		evs = append(evs, ev)
		b.Events[spec.Label()] = ev
	}

	base := []engine.Option{
		engine.WithName(r.Name),
		engine.WithConfig(cfg),
		engine.WithConditions(conds...),
		engine.WithEvents(evs...),
		engine.WithLogger(reg.deps.Logger),
	}
	b.Engine = engine.New(append(base, opts...)...)
	return b, nil
}

// ConfigFromRuleset parses the ruleset's modes and delay.
func ConfigFromRuleset(r *ir.Ruleset) (engine.Config, error) {
	cfg, errs := configFromRuleset(r)
	if len(errs) > 0 {
		return cfg, ValidationErrors(errs)
	}
	return cfg, nil
}
