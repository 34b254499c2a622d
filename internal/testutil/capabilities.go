package testutil

import (
	"sync"

	"github.com/roach88/condevent/internal/engine"
)

// Hooks counts lifecycle calls on a test capability.
type Hooks struct {
	Inits     int
	Teardowns int
	Resets    int
}

// ScriptedCondition returns Results in order, one per check, then Default.
type ScriptedCondition struct {
	Name    string
	Results []bool
	Default bool

	// OnCheck, if set, is called after each check with the returned result.
	OnCheck func(name string, positive, result bool)

	mu        sync.Mutex
	calls     int
	positives []bool
	hooks     Hooks
}

// NewScriptedCondition creates a condition named name returning results.
func NewScriptedCondition(name string, results ...bool) *ScriptedCondition {
	return &ScriptedCondition{Name: name, Results: results}
}

// CheckCondition implements engine.Condition.
func (c *ScriptedCondition) CheckCondition(_ *engine.Engine, _ any, positive bool) bool {
	c.mu.Lock()
	result := c.Default
	if c.calls < len(c.Results) {
		result = c.Results[c.calls]
	}
	c.calls++
	c.positives = append(c.positives, positive)
	hook := c.OnCheck
	c.mu.Unlock()

	if hook != nil {
		hook(c.Name, positive, result)
	}
	return result
}

func (c *ScriptedCondition) Init(*engine.Engine)     { c.mu.Lock(); c.hooks.Inits++; c.mu.Unlock() }
func (c *ScriptedCondition) Teardown(*engine.Engine) { c.mu.Lock(); c.hooks.Teardowns++; c.mu.Unlock() }
func (c *ScriptedCondition) Reset(*engine.Engine)    { c.mu.Lock(); c.hooks.Resets++; c.mu.Unlock() }

// Calls returns the number of CheckCondition invocations.
func (c *ScriptedCondition) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Positives returns the working polarity of every check, in order.
func (c *ScriptedCondition) Positives() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.positives...)
}

// Hooks returns the lifecycle call counts.
func (c *ScriptedCondition) Hooks() Hooks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hooks
}

// SinkCall is one notification received by a RecordingEvent.
type SinkCall struct {
	Trigger        string
	Positive       bool
	RequirementMet bool
}

// RecordingEvent remembers every notification. With Panic set it records
// the call and then panics, to exercise sink isolation.
type RecordingEvent struct {
	Name  string
	Panic bool

	// OnFire, if set, is called for every notification before any panic.
	OnFire func(name string, call SinkCall)

	mu    sync.Mutex
	calls []SinkCall
	hooks Hooks
}

// NewRecordingEvent creates a sink named name.
func NewRecordingEvent(name string) *RecordingEvent {
	return &RecordingEvent{Name: name}
}

// TriggerEvent implements engine.Event.
func (r *RecordingEvent) TriggerEvent(_ *engine.Engine, trigger any, positive, met bool) {
	call := SinkCall{Trigger: engine.TriggerName(trigger), Positive: positive, RequirementMet: met}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	hook := r.OnFire
	r.mu.Unlock()

	if hook != nil {
		hook(r.Name, call)
	}
	if r.Panic {
		panic("recording event " + r.Name + " configured to panic")
	}
}

func (r *RecordingEvent) Init(*engine.Engine)     { r.mu.Lock(); r.hooks.Inits++; r.mu.Unlock() }
func (r *RecordingEvent) Teardown(*engine.Engine) { r.mu.Lock(); r.hooks.Teardowns++; r.mu.Unlock() }
func (r *RecordingEvent) Reset(*engine.Engine)    { r.mu.Lock(); r.hooks.Resets++; r.mu.Unlock() }

// Calls returns a copy of the received notifications.
func (r *RecordingEvent) Calls() []SinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SinkCall(nil), r.calls...)
}

// Hooks returns the lifecycle call counts.
func (r *RecordingEvent) Hooks() Hooks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hooks
}
