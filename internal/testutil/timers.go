package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/condevent/internal/engine"
)

// ManualTimerHost is an engine.TimerHost driven by virtual time. Callbacks
// run synchronously inside Advance, in deadline order, ties broken by
// scheduling order.
type ManualTimerHost struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending []*manualTimer
}

type manualTimer struct {
	host    *ManualTimerHost
	id      int
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

// NewManualTimerHost creates a host at virtual time zero.
func NewManualTimerHost() *ManualTimerHost {
	return &ManualTimerHost{}
}

// AfterFunc implements engine.TimerHost.
func (h *ManualTimerHost) AfterFunc(d time.Duration, f func()) engine.Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	t := &manualTimer{host: h, id: h.nextID, at: h.now + d, f: f}
	h.pending = append(h.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.host.mu.Lock()
	defer t.host.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward by d and runs every callback whose
// deadline has passed. Returns the number of callbacks run.
func (h *ManualTimerHost) Advance(d time.Duration) int {
	h.mu.Lock()
	h.now += d
	var due []*manualTimer
	keep := h.pending[:0]
	for _, t := range h.pending {
		switch {
		case t.stopped:
		case t.at <= h.now:
			t.fired = true
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	h.pending = keep
	h.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].id < due[j].id
	})
	// Callbacks run unlocked so they may schedule further timers.
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// Now returns the current virtual time.
func (h *ManualTimerHost) Now() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

// Pending returns the number of scheduled callbacks that have neither fired
// nor been stopped.
func (h *ManualTimerHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}
