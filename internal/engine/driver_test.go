package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_OneFalseConditionBlocksAll(t *testing.T) {
	sink := &recordingEvent{}
	obs := &captureObserver{}
	e := newTestEngine(
		WithConditions(constant(true), constant(true), constant(false)),
		WithEvents(sink),
		WithObserver(obs),
	)

	assert.False(t, e.Update("t", true))
	assert.Empty(t, sink.calls)
	require.Len(t, obs.suppressions, 1)
	assert.Equal(t, ReasonRequirementNotMet, obs.suppressions[0].Reason)
}

func TestUpdate_NoConditionsNecessityNever(t *testing.T) {
	sink := &recordingEvent{}
	e := newTestEngine(
		WithNecessity(NecessityNever),
		WithTriggerBehavior(TriggerAlways),
		WithEvents(sink),
	)

	assert.True(t, e.Update("t", false))
	require.Len(t, sink.calls, 1)
	assert.Equal(t, sinkCall{trigger: "t", positive: false, requirementMet: true}, sink.calls[0])
}

func TestUpdate_Necessity(t *testing.T) {
	tests := []struct {
		name      string
		necessity Necessity
		polarity  PolarityMode
		raw       bool
		want      bool
	}{
		{"always blocks positive", NecessityAlways, PolarityDefault, true, false},
		{"always blocks negative", NecessityAlways, PolarityDefault, false, false},
		{"never bypasses positive", NecessityNever, PolarityDefault, true, true},
		{"never bypasses negative", NecessityNever, PolarityDefault, false, true},
		{"if_positive holds on positive", NecessityIfPositive, PolarityDefault, true, false},
		{"if_positive bypasses negative", NecessityIfPositive, PolarityDefault, false, true},
		{"if_negative bypasses positive", NecessityIfNegative, PolarityDefault, true, true},
		{"if_negative holds on negative", NecessityIfNegative, PolarityDefault, false, false},
		{"gate sees transformed polarity", NecessityIfPositive, PolarityReversed, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingEvent{}
			e := newTestEngine(
				WithNecessity(tt.necessity),
				WithPolarityMode(tt.polarity),
				WithConditions(constant(false)),
				WithEvents(sink),
			)

			assert.Equal(t, tt.want, e.Update("t", tt.raw))
			if tt.want {
				require.Len(t, sink.calls, 1)
				assert.False(t, sink.calls[0].requirementMet, "bypass forwards the unmet requirement")
			} else {
				assert.Empty(t, sink.calls)
			}
		})
	}
}

func TestUpdate_RequirementMetDispatches(t *testing.T) {
	sink := &recordingEvent{}
	e := newTestEngine(WithConditions(constant(true)), WithEvents(sink))

	assert.True(t, e.Update("player", true))
	require.Len(t, sink.calls, 1)
	assert.Equal(t, sinkCall{trigger: "player", positive: true, requirementMet: true}, sink.calls[0])
}

func TestUpdate_InactiveSuppressesAsInactive(t *testing.T) {
	sink := &recordingEvent{}
	obs := &captureObserver{}
	e := newTestEngine(WithEvents(sink), WithObserver(obs))
	e.SetEnabled(false)

	assert.False(t, e.Update("t", true))
	require.Len(t, obs.suppressions, 1)
	assert.Equal(t, ReasonInactive, obs.suppressions[0].Reason)
	assert.Equal(t, []bool{false}, obs.evaluations)
}

func TestUpdate_ConditionsOnlyEvaluatesButNeverDispatches(t *testing.T) {
	cond := constant(true)
	sink := &recordingEvent{}
	e := newTestEngine(WithConditions(cond), WithEvents(sink))
	e.SetActive(ActiveConditionsOnly)

	assert.False(t, e.Update("t", true))
	assert.Equal(t, 1, cond.calls)
	assert.Empty(t, sink.calls)
	assert.True(t, e.CheckConditionsOnly("t", true))
}

func TestCheckConditionsOnly_AdvancesStickyWithoutDispatch(t *testing.T) {
	cond := script(true, false)
	sink := &recordingEvent{}
	e := newTestEngine(WithCombinator(CombinatorAllOnce), WithConditions(cond), WithEvents(sink))

	assert.True(t, e.CheckConditionsOnly("t", true))
	assert.Equal(t, []bool{true}, e.StickyState())
	assert.Empty(t, sink.calls)

	assert.True(t, e.Update("t", true), "sticky index still holds")
	assert.Equal(t, 1, cond.calls)
}

func TestUninitializedCallsAreNoOps(t *testing.T) {
	cond := constant(true)
	sink := &recordingEvent{}
	e := New(WithLogger(quietLogger()), WithConditions(cond), WithEvents(sink))

	assert.False(t, e.Update("t", true))
	assert.False(t, e.CheckConditionsOnly("t", true))
	assert.False(t, e.DispatchOnly("t", true, true))
	assert.Zero(t, cond.calls)
	assert.Empty(t, sink.calls)

	e.Init("owner", nil)
	e.Teardown()
	assert.False(t, e.Update("t", true), "torn down engine ignores updates")
}

func TestUpdate_ObserverSequence(t *testing.T) {
	obs := &captureObserver{}
	second := &captureObserver{}
	e := newTestEngine(
		WithConditions(script(true, false)),
		WithObserver(obs),
		WithObserver(second),
		WithObserver(nil),
	)

	e.Update("t", true)
	e.Update("t", true)

	assert.Equal(t, []bool{true, false}, obs.evaluations)
	assert.Len(t, obs.dispatches, 1)
	assert.Len(t, obs.suppressions, 1)
	assert.Equal(t, obs, second)
}
