package conditions

import "github.com/roach88/condevent/internal/engine"

// Unlimited disables a MaxTriggerCount limit.
const Unlimited = -1

// MaxTriggerCount holds until it has been checked more often than allowed.
// Every check counts, including ones whose engine then suppresses the
// dispatch. A negative limit is unlimited.
type MaxTriggerCount struct {
	engine.BaseCondition

	MaxBoth     int
	MaxPositive int
	MaxNegative int

	both, positive, negative int
}

// NewMaxTriggerCount limits combined checks to maxBoth with no per-polarity
// limit.
func NewMaxTriggerCount(maxBoth int) *MaxTriggerCount {
	return &MaxTriggerCount{
		MaxBoth:     maxBoth,
		MaxPositive: Unlimited,
		MaxNegative: Unlimited,
	}
}

// CheckCondition counts this check, then compares the combined count and the
// count for this polarity against their limits.
func (m *MaxTriggerCount) CheckCondition(_ *engine.Engine, _ any, positive bool) bool {
	m.both++
	if positive {
		m.positive++
		return within(m.both, m.MaxBoth) && within(m.positive, m.MaxPositive)
	}
	m.negative++
	return within(m.both, m.MaxBoth) && within(m.negative, m.MaxNegative)
}

// Reset zeroes all counters.
func (m *MaxTriggerCount) Reset(*engine.Engine) {
	m.both, m.positive, m.negative = 0, 0, 0
}

// Counts returns the combined, positive and negative check counts.
func (m *MaxTriggerCount) Counts() (both, positive, negative int) {
	return m.both, m.positive, m.negative
}

func within(count, limit int) bool {
	return limit < 0 || count <= limit
}
