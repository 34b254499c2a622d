package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedTrigger struct{ id string }

func (n namedTrigger) Name() string { return n.id }

type stringerTrigger int

func (s stringerTrigger) String() string { return "trigger-" + string(rune('a'+int(s))) }

func TestTriggerName(t *testing.T) {
	var typedNil *namedTrigger
	tests := []struct {
		name    string
		trigger any
		want    string
	}{
		{"nil", nil, "NULL"},
		{"typed nil", typedNil, "NULL"},
		{"string", "player", "player"},
		{"stringer", stringerTrigger(1), "trigger-b"},
		{"named", namedTrigger{id: "crate"}, "crate"},
		{"fallback", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TriggerName(tt.trigger))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(WithLogger(quietLogger()))

	assert.Equal(t, DefaultConfig(), e.Config())
	assert.Equal(t, ActiveEverything, e.ActiveStatus())
	assert.False(t, e.Initialized())
	assert.Nil(t, e.Owner())
	assert.Empty(t, e.Conditions())
	assert.Empty(t, e.Events())
}

func TestConfig_String(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Combinator = CombinatorAnyOnce

	assert.Equal(t,
		"combinator=any_once reversal=never necessity=always polarity=default "+
			"polarity_from_requirement=none trigger_behavior=always delay=0s",
		cfg.String())
}

func TestWithConditions_CopiesSlice(t *testing.T) {
	conds := []Condition{constant(true)}
	e := New(WithLogger(quietLogger()), WithConditions(conds...))

	conds[0] = nil
	assert.NotNil(t, e.Conditions()[0])
}

func TestConditionList(t *testing.T) {
	a, b := constant(true), constant(false)
	e := New(WithLogger(quietLogger()))

	assert.True(t, e.AddCondition(a))
	assert.False(t, e.AddCondition(a), "add is add-if-absent")
	assert.True(t, e.AddCondition(b))
	assert.Len(t, e.Conditions(), 2)

	assert.True(t, e.RemoveCondition(a))
	assert.False(t, e.RemoveCondition(a))
	assert.Equal(t, []Condition{b}, e.Conditions())
}

func TestEventList(t *testing.T) {
	a, b := &recordingEvent{}, &recordingEvent{}
	e := New(WithLogger(quietLogger()))

	assert.True(t, e.AddEvent(a))
	assert.False(t, e.AddEvent(a))
	assert.True(t, e.AddEvent(b))
	assert.True(t, e.RemoveEvent(b))
	assert.Equal(t, []Event{a}, e.Events())
}

func TestFuncAdaptersNeverDeduplicate(t *testing.T) {
	f := ConditionFunc(func(*Engine, any, bool) bool { return true })
	e := New(WithLogger(quietLogger()))

	assert.True(t, e.AddCondition(f))
	assert.True(t, e.AddCondition(f))
	assert.False(t, e.RemoveCondition(f))
}

func TestRemoveNilEntries(t *testing.T) {
	var typedNil *scriptedCondition
	live := constant(true)
	e := New(WithLogger(quietLogger()),
		WithConditions(nil, live, typedNil, deadCondition{}),
		WithEvents(&recordingEvent{}),
	)

	assert.True(t, e.RemoveNilConditions())
	assert.Equal(t, []Condition{live}, e.Conditions())
	assert.False(t, e.RemoveNilConditions())
	assert.False(t, e.RemoveNilEvents())
}

func TestLiveListMutationsVisible(t *testing.T) {
	sink := &recordingEvent{}
	e := newTestEngine(WithConditions(constant(false)), WithEvents(sink))

	e.Conditions()[0] = constant(true)
	assert.True(t, e.Update("t", true))

	e.SetEvents(nil)
	assert.True(t, e.Update("t", true))
	assert.Len(t, sink.calls, 1)
}

func TestAbsent(t *testing.T) {
	var nilFunc ConditionFunc
	assert.True(t, absent(nil))
	assert.True(t, absent(nilFunc))
	assert.True(t, absent(deadCondition{}))
	assert.False(t, absent(BaseCondition{}))
	assert.False(t, absent(constant(true)))
}
