package cli

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/condevent/internal/engine"
)

// trackedTimerHost wraps a timer host so the command can wait for
// outstanding delayed dispatches before tearing the engine down.
type trackedTimerHost struct {
	host engine.TimerHost
	wg   sync.WaitGroup

	mu      sync.Mutex
	pending map[*trackedTimer]struct{}
}

func newTrackedTimerHost(host engine.TimerHost) *trackedTimerHost {
	return &trackedTimerHost{host: host, pending: make(map[*trackedTimer]struct{})}
}

type trackedTimer struct {
	timer engine.Timer
	once  sync.Once
	owner *trackedTimerHost
}

func (t *trackedTimer) finish() {
	t.once.Do(func() {
		t.owner.mu.Lock()
		delete(t.owner.pending, t)
		t.owner.mu.Unlock()
		t.owner.wg.Done()
	})
}

func (t *trackedTimer) Stop() bool {
	if t.timer.Stop() {
		t.finish()
		return true
	}
	return false
}

func (h *trackedTimerHost) AfterFunc(d time.Duration, f func()) engine.Timer {
	h.wg.Add(1)
	t := &trackedTimer{owner: h}
	h.mu.Lock()
	h.pending[t] = struct{}{}
	h.mu.Unlock()
	t.timer = h.host.AfterFunc(d, func() {
		defer t.finish()
		f()
	})
	return t
}

// Wait blocks until every scheduled callback ran or was stopped, or ctx
// is done.
func (h *trackedTimerHost) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll stops every callback that has not started yet and returns how
// many were stopped. A callback already running is left to finish.
func (h *trackedTimerHost) StopAll() int {
	h.mu.Lock()
	timers := make([]*trackedTimer, 0, len(h.pending))
	for t := range h.pending {
		timers = append(timers, t)
	}
	h.mu.Unlock()

	stopped := 0
	for _, t := range timers {
		if t.Stop() {
			stopped++
		}
	}
	return stopped
}
