package events

import "github.com/roach88/condevent/internal/engine"

// Callback runs one list of functions on positive dispatches and another on
// negative ones. Callbacks run in order on the dispatching goroutine.
type Callback struct {
	engine.BaseEvent

	Positive []func()
	Negative []func()

	// AlwaysPositive runs the positive list regardless of polarity.
	AlwaysPositive bool
}

// OnPositive appends fn to the positive list and returns c for chaining.
func (c *Callback) OnPositive(fn func()) *Callback {
	c.Positive = append(c.Positive, fn)
	return c
}

// OnNegative appends fn to the negative list and returns c for chaining.
func (c *Callback) OnNegative(fn func()) *Callback {
	c.Negative = append(c.Negative, fn)
	return c
}

func (c *Callback) TriggerEvent(_ *engine.Engine, _ any, positive, _ bool) {
	list := c.Negative
	if positive || c.AlwaysPositive {
		list = c.Positive
	}
	for _, fn := range list {
		if fn != nil {
			fn()
		}
	}
}
