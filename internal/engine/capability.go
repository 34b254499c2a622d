package engine

import (
	"fmt"
	"reflect"
)

// Condition is a pluggable boolean predicate consulted by the requirement
// evaluator. Embed BaseCondition to inherit no-op lifecycle hooks.
type Condition interface {
	// CheckCondition reports whether the condition holds for this trigger.
	// positive is the polarity after the engine's polarity mode is applied.
	CheckCondition(e *Engine, trigger any, positive bool) bool

	// Init is called once after the engine is initialized, before the first
	// CheckCondition.
	Init(e *Engine)

	// Teardown is called once before the engine's owner goes away, after the
	// last CheckCondition.
	Teardown(e *Engine)

	// Reset is called by Reset(ResetConditionsOnly|ResetEverything). It is
	// never called by Init or Teardown.
	Reset(e *Engine)
}

// Event is a pluggable dispatch target notified on fan-out. Embed BaseEvent
// to inherit no-op lifecycle hooks.
type Event interface {
	// TriggerEvent is called once per dispatch with the final polarity and
	// the requirement outcome.
	TriggerEvent(e *Engine, trigger any, positive, requirementMet bool)

	Init(e *Engine)
	Teardown(e *Engine)
	Reset(e *Engine)
}

// Liveness is implemented by capabilities whose backing object can be
// destroyed outside the engine's control. Entries reporting !Alive() are
// treated as absent.
type Liveness interface {
	Alive() bool
}

// BaseCondition provides default Condition behavior: always true, no-op hooks.
type BaseCondition struct{}

func (BaseCondition) CheckCondition(*Engine, any, bool) bool { return true }
func (BaseCondition) Init(*Engine)                           {}
func (BaseCondition) Teardown(*Engine)                       {}
func (BaseCondition) Reset(*Engine)                          {}

// BaseEvent provides no-op Event behavior.
type BaseEvent struct{}

func (BaseEvent) TriggerEvent(*Engine, any, bool, bool) {}
func (BaseEvent) Init(*Engine)                          {}
func (BaseEvent) Teardown(*Engine)                      {}
func (BaseEvent) Reset(*Engine)                         {}

// ConditionFunc adapts a plain function to the Condition interface.
type ConditionFunc func(e *Engine, trigger any, positive bool) bool

func (f ConditionFunc) CheckCondition(e *Engine, trigger any, positive bool) bool {
	return f(e, trigger, positive)
}
func (ConditionFunc) Init(*Engine)     {}
func (ConditionFunc) Teardown(*Engine) {}
func (ConditionFunc) Reset(*Engine)    {}

// EventFunc adapts a plain function to the Event interface.
type EventFunc func(e *Engine, trigger any, positive, requirementMet bool)

func (f EventFunc) TriggerEvent(e *Engine, trigger any, positive, requirementMet bool) {
	f(e, trigger, positive, requirementMet)
}
func (EventFunc) Init(*Engine)     {}
func (EventFunc) Teardown(*Engine) {}
func (EventFunc) Reset(*Engine)    {}

// absent reports whether a capability entry must be skipped: a nil
// interface, a typed nil pointer, or a destroyed Liveness.
func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			return true
		}
	}
	if l, ok := v.(Liveness); ok && !l.Alive() {
		return true
	}
	return false
}

// TriggerName renders an opaque trigger handle for logs and records.
func TriggerName(trigger any) string {
	if absent(trigger) {
		return "NULL"
	}
	switch t := trigger.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case interface{ Name() string }:
		return t.Name()
	}
	return fmt.Sprintf("%v", trigger)
}

// sameCapability compares list entries by identity. Entries of
// non-comparable dynamic types (func adapters) never compare equal.
func sameCapability(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
