package compiler

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/condevent/internal/conditions"
	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/events"
	"github.com/roach88/condevent/internal/ir"
)

// Deps are shared collaborators handed to every factory.
type Deps struct {
	Logger *slog.Logger
}

// ConditionFactory builds a condition from its spec.
type ConditionFactory func(spec ir.ComponentSpec, deps Deps) (engine.Condition, error)

// EventFactory builds an event sink from its spec.
type EventFactory func(spec ir.ComponentSpec, deps Deps) (engine.Event, error)

// Registry maps component kinds to factories.
type Registry struct {
	conditions map[string]ConditionFactory
	events     map[string]EventFactory
	deps       Deps
}

// NewRegistry returns an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conditions: make(map[string]ConditionFactory),
		events:     make(map[string]EventFactory),
		deps:       Deps{Logger: logger},
	}
}

// DefaultRegistry registers the built-in kinds:
//
//	conditions: chance, max_trigger_count, static, expr
//	events:     log, counter
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.RegisterCondition("chance", newChance)
	r.RegisterCondition("max_trigger_count", newMaxTriggerCount)
	r.RegisterCondition("static", newStatic)
	r.RegisterCondition("expr", newExpr)
	r.RegisterEvent("log", newLog)
	r.RegisterEvent("counter", newCounter)
	return r
}

// RegisterCondition adds or replaces a condition kind.
func (r *Registry) RegisterCondition(kind string, f ConditionFactory) {
	r.conditions[kind] = f
}

// RegisterEvent adds or replaces an event kind.
func (r *Registry) RegisterEvent(kind string, f EventFactory) {
	r.events[kind] = f
}

// ConditionKinds returns the registered condition kinds, sorted.
func (r *Registry) ConditionKinds() []string {
	return slices.Sorted(maps.Keys(r.conditions))
}

// EventKinds returns the registered event kinds, sorted.
func (r *Registry) EventKinds() []string {
	return slices.Sorted(maps.Keys(r.events))
}

func newChance(spec ir.ComponentSpec, _ Deps) (engine.Condition, error) {
	p := newParams(spec.Params)
	pos, err := p.number("positive", 0.5)
	if err != nil {
		return nil, err
	}
	neg, err := p.number("negative", 0.5)
	if err != nil {
		return nil, err
	}
	if err := p.unknown(); err != nil {
		return nil, err
	}
	for _, prob := range []float64{pos, neg} {
		if prob < 0 || prob > 1 {
			return nil, fmt.Errorf("probability %v out of range [0, 1]", prob)
		}
	}
	return conditions.NewChance(pos, neg), nil
}

func newMaxTriggerCount(spec ir.ComponentSpec, _ Deps) (engine.Condition, error) {
	p := newParams(spec.Params)
	both, err := p.integer("max_both", 10)
	if err != nil {
		return nil, err
	}
	pos, err := p.integer("max_positive", conditions.Unlimited)
	if err != nil {
		return nil, err
	}
	neg, err := p.integer("max_negative", conditions.Unlimited)
	if err != nil {
		return nil, err
	}
	if err := p.unknown(); err != nil {
		return nil, err
	}
	return &conditions.MaxTriggerCount{MaxBoth: both, MaxPositive: pos, MaxNegative: neg}, nil
}

func newStatic(spec ir.ComponentSpec, _ Deps) (engine.Condition, error) {
	p := newParams(spec.Params)
	v, err := p.boolean("value", true)
	if err != nil {
		return nil, err
	}
	if err := p.unknown(); err != nil {
		return nil, err
	}
	return &conditions.Static{Value: v}, nil
}

func newExpr(spec ir.ComponentSpec, deps Deps) (engine.Condition, error) {
	p := newParams(spec.Params)
	src, err := p.text("expr", true)
	if err != nil {
		return nil, err
	}
	if err := p.unknown(); err != nil {
		return nil, err
	}
	return conditions.NewExpr(src, deps.Logger)
}

func newLog(spec ir.ComponentSpec, deps Deps) (engine.Event, error) {
	p := newParams(spec.Params)
	msg, err := p.text("message", false)
	if err != nil {
		return nil, err
	}
	logTrigger, err := p.boolean("log_trigger", true)
	if err != nil {
		return nil, err
	}
	logLifecycle, err := p.boolean("log_lifecycle", false)
	if err != nil {
		return nil, err
	}
	if err := p.unknown(); err != nil {
		return nil, err
	}
	return &events.Log{
		Logger:       deps.Logger,
		Message:      msg,
		LogTrigger:   logTrigger,
		LogLifecycle: logLifecycle,
	}, nil
}

func newCounter(spec ir.ComponentSpec, _ Deps) (engine.Event, error) {
	if err := newParams(spec.Params).unknown(); err != nil {
		return nil, err
	}
	return &events.Counter{}, nil
}
