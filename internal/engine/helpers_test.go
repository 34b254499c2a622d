package engine

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an initialized engine with a quiet logger and
// deterministic dispatch IDs.
func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithLogger(quietLogger()),
		WithIDGenerator(&countingIDs{}),
	}
	e := New(append(base, opts...)...)
	e.Init("owner", nil)
	return e
}

type countingIDs struct{ n int }

func (g *countingIDs) Generate() string {
	g.n++
	return fmt.Sprintf("d-%d", g.n)
}

// scriptedCondition returns queued results, then fallback.
type scriptedCondition struct {
	results   []bool
	fallback  bool
	calls     int
	positives []bool
	lifecycle
}

func script(results ...bool) *scriptedCondition {
	return &scriptedCondition{results: results}
}

func constant(v bool) *scriptedCondition {
	return &scriptedCondition{fallback: v}
}

func (c *scriptedCondition) CheckCondition(_ *Engine, _ any, positive bool) bool {
	c.calls++
	c.positives = append(c.positives, positive)
	if len(c.results) == 0 {
		return c.fallback
	}
	r := c.results[0]
	c.results = c.results[1:]
	return r
}

type sinkCall struct {
	trigger        any
	positive       bool
	requirementMet bool
}

type recordingEvent struct {
	calls []sinkCall
	lifecycle
}

func (r *recordingEvent) TriggerEvent(_ *Engine, trigger any, positive, met bool) {
	r.calls = append(r.calls, sinkCall{trigger: trigger, positive: positive, requirementMet: met})
}

type panickingEvent struct{ BaseEvent }

func (panickingEvent) TriggerEvent(*Engine, any, bool, bool) {
	panic("sink exploded")
}

// lifecycle counts hook calls and appends "<name>.<hook>" to a shared log.
type lifecycle struct {
	name                     string
	log                      *[]string
	inits, teardowns, resets int
}

func (l *lifecycle) note(hook string) {
	if l.log != nil {
		*l.log = append(*l.log, l.name+"."+hook)
	}
}

func (l *lifecycle) Init(*Engine)     { l.inits++; l.note("init") }
func (l *lifecycle) Teardown(*Engine) { l.teardowns++; l.note("teardown") }
func (l *lifecycle) Reset(*Engine)    { l.resets++; l.note("reset") }

// deadCondition reports itself destroyed.
type deadCondition struct{ BaseCondition }

func (deadCondition) Alive() bool { return false }
func (deadCondition) CheckCondition(*Engine, any, bool) bool {
	panic("destroyed condition must not be checked")
}

// manualTimers fires callbacks only when Advance moves past their deadline.
type manualTimers struct {
	now     time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{at: m.now + d, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (m *manualTimers) Advance(d time.Duration) {
	m.now += d
	for _, t := range m.pending {
		if t.fired || t.stopped || t.at > m.now {
			continue
		}
		t.fired = true
		t.f()
	}
}

// captureObserver records everything it sees.
type captureObserver struct {
	evaluations  []bool
	dispatches   []Dispatch
	suppressions []Suppression
	faults       []error
}

func (o *captureObserver) OnEvaluate(_ string, met bool) { o.evaluations = append(o.evaluations, met) }
func (o *captureObserver) OnDispatch(d Dispatch)         { o.dispatches = append(o.dispatches, d) }
func (o *captureObserver) OnSuppressed(s Suppression)    { o.suppressions = append(o.suppressions, s) }

func (o *captureObserver) OnSinkFault(_ string, _ int, err error) {
	o.faults = append(o.faults, err)
}

// selfRemovingEvent logs its name and removes itself from the engine when
// triggered.
type selfRemovingEvent struct {
	BaseEvent
	name  string
	order *[]string
}

func (s *selfRemovingEvent) TriggerEvent(e *Engine, _ any, _, _ bool) {
	*s.order = append(*s.order, s.name)
	e.RemoveEvent(s)
}

// namedEvent logs its name when triggered.
type namedEvent struct {
	BaseEvent
	name  string
	order *[]string
}

func (n *namedEvent) TriggerEvent(*Engine, any, bool, bool) {
	*n.order = append(*n.order, n.name)
}

// leavingCondition removes itself from the engine on Teardown, and on
// CheckCondition when leaveOnCheck is set.
type leavingCondition struct {
	BaseCondition
	name         string
	log          *[]string
	result       bool
	leaveOnCheck bool
	checks       int
}

func (c *leavingCondition) CheckCondition(e *Engine, _ any, _ bool) bool {
	c.checks++
	if c.leaveOnCheck {
		e.RemoveCondition(c)
	}
	return c.result
}

func (c *leavingCondition) Teardown(e *Engine) {
	*c.log = append(*c.log, c.name)
	e.RemoveCondition(c)
}
