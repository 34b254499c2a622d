package conditions

import (
	"math/rand/v2"

	"github.com/roach88/condevent/internal/engine"
)

// Chance holds with a fixed probability, chosen by polarity.
type Chance struct {
	engine.BaseCondition

	// Positive is the probability of holding for a positive trigger.
	Positive float64

	// Negative is the probability of holding for a negative trigger.
	Negative float64

	// Float64 returns a value in [0, 1). Defaults to math/rand/v2.
	Float64 func() float64
}

// NewChance returns a Chance using the global random source.
func NewChance(positive, negative float64) *Chance {
	return &Chance{Positive: positive, Negative: negative}
}

// CheckCondition draws once and compares against the polarity's probability.
func (c *Chance) CheckCondition(_ *engine.Engine, _ any, positive bool) bool {
	p := c.Negative
	if positive {
		p = c.Positive
	}
	draw := rand.Float64
	if c.Float64 != nil {
		draw = c.Float64
	}
	return draw() < p
}
