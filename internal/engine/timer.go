package engine

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// TimerHost schedules deferred fan-out. It is owned by the embedding
// environment and supplied to Init.
//
// Callbacks may run on any goroutine the host chooses. The engine only
// touches its event list snapshot and the event sinks from a callback.
type TimerHost interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealTimerHost schedules callbacks with time.AfterFunc.
type RealTimerHost struct{}

// AfterFunc implements TimerHost.
func (RealTimerHost) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
