package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPolarity(t *testing.T) {
	tests := []struct {
		mode PolarityMode
		in   bool
		want bool
	}{
		{PolarityDefault, true, true},
		{PolarityDefault, false, false},
		{PolarityReversed, true, false},
		{PolarityReversed, false, true},
		{PolarityAlwaysPositive, true, true},
		{PolarityAlwaysPositive, false, true},
		{PolarityAlwaysNegative, true, false},
		{PolarityAlwaysNegative, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyPolarity(tt.mode, tt.in))
		})
	}
}

func TestApplyReversal(t *testing.T) {
	tests := []struct {
		mode     Reversal
		positive bool
		inverts  bool
	}{
		{ReversalNever, true, false},
		{ReversalNever, false, false},
		{ReversalAlways, true, true},
		{ReversalAlways, false, true},
		{ReversalIfNegative, true, false},
		{ReversalIfNegative, false, true},
		{ReversalIfPositive, true, true},
		{ReversalIfPositive, false, false},
	}

	for _, tt := range tests {
		for _, met := range []bool{true, false} {
			want := met
			if tt.inverts {
				want = !met
			}
			assert.Equal(t, want, ApplyReversal(tt.mode, met, tt.positive),
				"mode=%s positive=%v met=%v", tt.mode, tt.positive, met)
		}
	}
}

func TestApplyReversal_UnknownModeActsAsIfPositive(t *testing.T) {
	assert.False(t, ApplyReversal(Reversal(42), true, true))
	assert.True(t, ApplyReversal(Reversal(42), true, false))
}

func TestBypasses(t *testing.T) {
	tests := []struct {
		mode     Necessity
		positive bool
		want     bool
	}{
		{NecessityAlways, true, false},
		{NecessityAlways, false, false},
		{NecessityNever, true, true},
		{NecessityNever, false, true},
		{NecessityIfPositive, true, false},
		{NecessityIfPositive, false, true},
		{NecessityIfNegative, true, true},
		{NecessityIfNegative, false, false},
		{Necessity(99), true, true},
		{Necessity(99), false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bypasses(tt.mode, tt.positive),
			"mode=%s positive=%v", tt.mode, tt.positive)
	}
}

func TestApplyFromRequirement(t *testing.T) {
	tests := []struct {
		mode     PolarityFromRequirement
		positive bool
		met      bool
		want     bool
	}{
		{FromRequirementNone, true, false, true},
		{FromRequirementNone, false, true, false},
		{FromRequirementOverwrite, true, false, false},
		{FromRequirementOverwrite, false, true, true},
		{FromRequirementAnd, true, true, true},
		{FromRequirementAnd, true, false, false},
		{FromRequirementAnd, false, true, false},
		{FromRequirementOr, false, false, false},
		{FromRequirementOr, false, true, true},
		{FromRequirementOr, true, false, true},
		{PolarityFromRequirement(9), false, true, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyFromRequirement(tt.mode, tt.positive, tt.met),
			"mode=%s positive=%v met=%v", tt.mode, tt.positive, tt.met)
	}
}

func TestChanged(t *testing.T) {
	tests := []struct {
		name         string
		mode         TriggerBehavior
		lastP, p     bool
		lastMet, met bool
		want         bool
	}{
		{"always same", TriggerAlways, true, true, true, true, true},
		{"polarity same", TriggerIfPolarityChanged, true, true, false, true, false},
		{"polarity flipped", TriggerIfPolarityChanged, true, false, true, true, true},
		{"requirement same", TriggerIfRequirementChanged, true, false, true, true, false},
		{"requirement flipped", TriggerIfRequirementChanged, true, true, true, false, true},
		{"either both same", TriggerIfPolarityOrRequirementChanged, true, true, false, false, false},
		{"either polarity", TriggerIfPolarityOrRequirementChanged, true, false, false, false, true},
		{"either requirement", TriggerIfPolarityOrRequirementChanged, true, true, false, true, true},
		{"unknown acts as either", TriggerBehavior(7), true, true, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Changed(tt.mode, tt.lastP, tt.p, tt.lastMet, tt.met))
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, name := range CombinatorNames() {
		c, err := ParseCombinator(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}
	for _, name := range ReversalNames() {
		r, err := ParseReversal(name)
		require.NoError(t, err)
		assert.Equal(t, name, r.String())
	}
	for _, name := range NecessityNames() {
		n, err := ParseNecessity(name)
		require.NoError(t, err)
		assert.Equal(t, name, n.String())
	}
	for _, name := range PolarityModeNames() {
		p, err := ParsePolarityMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
	}
	for _, name := range PolarityFromRequirementNames() {
		f, err := ParsePolarityFromRequirement(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}
	for _, name := range TriggerBehaviorNames() {
		b, err := ParseTriggerBehavior(name)
		require.NoError(t, err)
		assert.Equal(t, name, b.String())
	}
}

func TestParse_CaseAndWhitespace(t *testing.T) {
	c, err := ParseCombinator("  Any_Once ")
	require.NoError(t, err)
	assert.Equal(t, CombinatorAnyOnce, c)

	s, err := ParseResetScope("engine_state_only")
	require.NoError(t, err)
	assert.Equal(t, ResetEngineStateOnly, s)

	a, err := ParseActiveStatus("conditions_only")
	require.NoError(t, err)
	assert.Equal(t, ActiveConditionsOnly, a)
}

func TestParse_Invalid(t *testing.T) {
	_, err := ParseNecessity("sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid necessity "sometimes"`)
}

func TestString_Unknown(t *testing.T) {
	assert.Equal(t, "unknown(12)", Combinator(12).String())
}
