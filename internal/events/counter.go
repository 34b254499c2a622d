package events

import (
	"sync/atomic"

	"github.com/roach88/condevent/internal/engine"
)

// Counter counts dispatches by polarity. Safe for delayed fan-out on a
// timer goroutine.
type Counter struct {
	engine.BaseEvent

	positive atomic.Int64
	negative atomic.Int64
	met      atomic.Int64
}

func (c *Counter) TriggerEvent(_ *engine.Engine, _ any, positive, requirementMet bool) {
	if positive {
		c.positive.Add(1)
	} else {
		c.negative.Add(1)
	}
	if requirementMet {
		c.met.Add(1)
	}
}

// Reset zeroes all counts.
func (c *Counter) Reset(*engine.Engine) {
	c.positive.Store(0)
	c.negative.Store(0)
	c.met.Store(0)
}

// Positive returns the number of positive dispatches.
func (c *Counter) Positive() int64 { return c.positive.Load() }

// Negative returns the number of negative dispatches.
func (c *Counter) Negative() int64 { return c.negative.Load() }

// RequirementMet returns the number of dispatches whose requirement held.
func (c *Counter) RequirementMet() int64 { return c.met.Load() }

// Total returns the number of dispatches.
func (c *Counter) Total() int64 { return c.Positive() + c.Negative() }
