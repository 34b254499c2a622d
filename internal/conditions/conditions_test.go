package conditions

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/condevent/internal/engine"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	e := engine.New(append([]engine.Option{engine.WithLogger(quietLogger())}, opts...)...)
	e.Init("gate", nil)
	t.Cleanup(e.Teardown)
	return e
}

func TestChance(t *testing.T) {
	tests := []struct {
		name     string
		chance   Chance
		draw     float64
		positive bool
		want     bool
	}{
		{"positive below", Chance{Positive: 0.5, Negative: 0}, 0.49, true, true},
		{"positive at threshold", Chance{Positive: 0.5, Negative: 1}, 0.5, true, false},
		{"negative uses negative", Chance{Positive: 1, Negative: 0.25}, 0.3, false, false},
		{"never", Chance{Positive: 0, Negative: 0}, 0, true, false},
		{"always", Chance{Positive: 1, Negative: 1}, 0.999, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.chance
			c.Float64 = func() float64 { return tt.draw }
			assert.Equal(t, tt.want, c.CheckCondition(nil, "t", tt.positive))
		})
	}
}

func TestChance_DefaultSource(t *testing.T) {
	always := NewChance(1, 0)
	for i := 0; i < 100; i++ {
		require.True(t, always.CheckCondition(nil, nil, true))
		require.False(t, always.CheckCondition(nil, nil, false))
	}
}

func TestMaxTriggerCount(t *testing.T) {
	m := NewMaxTriggerCount(2)

	assert.True(t, m.CheckCondition(nil, nil, true))
	assert.True(t, m.CheckCondition(nil, nil, false))
	assert.False(t, m.CheckCondition(nil, nil, true))

	both, pos, neg := m.Counts()
	assert.Equal(t, []int{3, 2, 1}, []int{both, pos, neg})

	m.Reset(nil)
	assert.True(t, m.CheckCondition(nil, nil, true))
}

func TestMaxTriggerCount_PerPolarity(t *testing.T) {
	m := &MaxTriggerCount{MaxBoth: Unlimited, MaxPositive: 1, MaxNegative: Unlimited}

	assert.True(t, m.CheckCondition(nil, nil, true))
	assert.False(t, m.CheckCondition(nil, nil, true))
	for i := 0; i < 5; i++ {
		assert.True(t, m.CheckCondition(nil, nil, false))
	}
}

func TestMaxTriggerCount_InEngine(t *testing.T) {
	var fired int
	e := newEngine(t,
		engine.WithConditions(NewMaxTriggerCount(2)),
		engine.WithEvents(engine.EventFunc(func(*engine.Engine, any, bool, bool) { fired++ })),
	)

	for i := 0; i < 4; i++ {
		e.Update("t", true)
	}
	assert.Equal(t, 2, fired)

	e.Reset(engine.ResetConditionsOnly)
	assert.True(t, e.Update("t", true))
}

func TestStatic(t *testing.T) {
	assert.True(t, (&Static{Value: true}).CheckCondition(nil, nil, false))
	assert.False(t, (&Static{}).CheckCondition(nil, nil, true))
}

func TestStatic_DistinctInstancesBothAdded(t *testing.T) {
	e := engine.New(engine.WithLogger(quietLogger()))
	a, b := &Static{Value: true}, &Static{Value: true}

	assert.True(t, e.AddCondition(a))
	assert.True(t, e.AddCondition(b))
	assert.False(t, e.AddCondition(a), "the same instance is not added twice")
	assert.Len(t, e.Conditions(), 2)
}

func TestExpr(t *testing.T) {
	tests := []struct {
		source   string
		trigger  any
		positive bool
		want     bool
	}{
		{"positive", "player", true, true},
		{"positive", "player", false, false},
		{`trigger == "player"`, "player", false, true},
		{`trigger == "NULL"`, nil, true, true},
		{`owner == "gate" && engine == "door"`, "x", true, true},
		{`trigger.startsWith("npc") || !positive`, "npc-7", true, true},
	}

	e := newEngine(t, engine.WithName("door"))
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			x, err := NewExpr(tt.source, quietLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.source, x.Source())
			assert.Equal(t, tt.want, x.CheckCondition(e, tt.trigger, tt.positive))
		})
	}
}

func TestNewExpr_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errMsg string
	}{
		{"syntax", "positive &&", "compile"},
		{"undeclared", "speed > 3", "undeclared reference"},
		{"not bool", `trigger + "x"`, "want bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpr(tt.source, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestExpr_RuntimeErrorIsFalse(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	x, err := NewExpr(`int(trigger) > 0`, logger)
	require.NoError(t, err)

	e := newEngine(t)
	assert.False(t, x.CheckCondition(e, "not-a-number", true))
	assert.Contains(t, buf.String(), "condition expression failed")
}
