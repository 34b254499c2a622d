package engine

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Config holds the enumerated options of one engine. It is fixed after
// construction.
type Config struct {
	Combinator      Combinator
	Reversal        Reversal
	Necessity       Necessity
	Polarity        PolarityMode
	FromRequirement PolarityFromRequirement
	TriggerBehavior TriggerBehavior

	// Delay defers fan-out onto the timer host when positive.
	Delay time.Duration
}

// DefaultConfig returns the construction defaults: all conditions required,
// never reversed, requirement always necessary, polarity unchanged, always
// dispatch, no delay.
func DefaultConfig() Config {
	return Config{
		Combinator:      CombinatorAll,
		Reversal:        ReversalNever,
		Necessity:       NecessityAlways,
		Polarity:        PolarityDefault,
		FromRequirement: FromRequirementNone,
		TriggerBehavior: TriggerAlways,
	}
}

// Engine evaluates a list of conditions for a trigger and dispatches to a
// list of event sinks.
//
// Thread-safety model:
//   - Update, CheckConditionsOnly, DispatchOnly, Reset, SetActive, Init,
//     Teardown and Clear must be driven by one logical caller at a time.
//   - The condition/event lists and the owner are guarded by a mutex, so
//     list mutators and delayed fan-out on a timer goroutine are safe.
//   - No lock is held while calling conditions, events or observers, so
//     sinks may call back into the engine during fan-out.
//
// INVARIANTS:
//   - len(sticky) == len(conditions) whenever a Once combinator evaluates
//   - absent list entries are skipped everywhere and never count as true
type Engine struct {
	name   string
	cfg    Config
	logger *slog.Logger
	clock  *Clock
	ids    IDGenerator
	obs    observers

	mu         sync.Mutex
	owner      any
	conditions []Condition
	events     []Event

	initialized bool
	timers      TimerHost
	active      ActiveStatus
	diagnostics []error

	// Sticky per-index memory for the Once combinators. Keyed by position
	// in conditions, not by identity: reordering the list without a
	// ResetEngineStateOnly moves remembered results to other conditions.
	sticky []bool

	hasFired     bool
	lastPolarity bool
	lastMet      bool

	// Most recent delayed fan-out. Scheduling another one replaces the
	// handle but does not stop the earlier timer.
	pending Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithName names the engine in logs, records and metrics.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithCombinator sets how condition results combine.
func WithCombinator(c Combinator) Option {
	return func(e *Engine) { e.cfg.Combinator = c }
}

// WithReversal sets when the requirement outcome is inverted.
func WithReversal(r Reversal) Option {
	return func(e *Engine) { e.cfg.Reversal = r }
}

// WithNecessity sets when the requirement must hold for dispatch.
func WithNecessity(n Necessity) Option {
	return func(e *Engine) { e.cfg.Necessity = n }
}

// WithPolarityMode sets the raw polarity transform.
func WithPolarityMode(p PolarityMode) Option {
	return func(e *Engine) { e.cfg.Polarity = p }
}

// WithPolarityFromRequirement sets how the requirement folds into polarity.
func WithPolarityFromRequirement(f PolarityFromRequirement) Option {
	return func(e *Engine) { e.cfg.FromRequirement = f }
}

// WithTriggerBehavior sets change-detection gating.
func WithTriggerBehavior(t TriggerBehavior) Option {
	return func(e *Engine) { e.cfg.TriggerBehavior = t }
}

// WithDelay defers fan-out by d. Requires a TimerHost at Init.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.cfg.Delay = d }
}

// WithConditions sets the initial condition list. The slice is copied.
func WithConditions(conds ...Condition) Option {
	return func(e *Engine) { e.conditions = append([]Condition(nil), conds...) }
}

// WithEvents sets the initial event list. The slice is copied.
func WithEvents(events ...Event) Option {
	return func(e *Engine) { e.events = append([]Event(nil), events...) }
}

// WithObserver attaches an observer. May be repeated.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = append(e.obs, o)
		}
	}
}

// WithIDGenerator sets the dispatch ID generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock sets the logical clock stamping records.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the structured logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine with empty lists and the default configuration,
// then applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		active: ActiveEverything,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("engine", e.name)
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string { return e.name }

// Config returns a copy of the configuration.
func (e *Engine) Config() Config { return e.cfg }

// Owner returns the opaque host handle set by Init, nil after Teardown.
func (e *Engine) Owner() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// Initialized reports whether Init ran and Teardown has not.
func (e *Engine) Initialized() bool { return e.initialized }

// ActiveStatus returns the current active status.
func (e *Engine) ActiveStatus() ActiveStatus { return e.active }

// SetActive sets which capabilities may run.
func (e *Engine) SetActive(status ActiveStatus) {
	e.active = status
}

// SetEnabled maps true to ActiveEverything and false to ActiveNothing.
func (e *Engine) SetEnabled(enabled bool) {
	if enabled {
		e.SetActive(ActiveEverything)
		return
	}
	e.SetActive(ActiveNothing)
}

// PendingDispatch returns the handle of the most recent delayed fan-out, or
// nil. The engine never stops it; the embedder may.
func (e *Engine) PendingDispatch() Timer { return e.pending }

// Diagnostics returns configuration problems reported at Init.
func (e *Engine) Diagnostics() []error {
	return append([]error(nil), e.diagnostics...)
}

// StickyState returns a copy of the Once-combinator memory.
func (e *Engine) StickyState() []bool {
	return append([]bool(nil), e.sticky...)
}

// Conditions returns the live condition list. Element assignments are
// visible to the engine; use SetConditions to change its length.
func (e *Engine) Conditions() []Condition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conditions
}

// Events returns the live event list. Element assignments are visible to
// the engine; use SetEvents to change its length.
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events
}

// SetConditions replaces the condition list.
func (e *Engine) SetConditions(conds []Condition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conditions = conds
}

// SetEvents replaces the event list.
func (e *Engine) SetEvents(events []Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = events
}

// AddCondition appends c unless it is already present. Returns true if added.
func (e *Engine) AddCondition(c Condition) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if indexOf(e.conditions, c) >= 0 {
		return false
	}
	e.conditions = append(e.conditions, c)
	return true
}

// AddEvent appends ev unless it is already present. Returns true if added.
func (e *Engine) AddEvent(ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if indexOf(e.events, ev) >= 0 {
		return false
	}
	e.events = append(e.events, ev)
	return true
}

// RemoveCondition removes the first occurrence of c. Returns true if removed.
func (e *Engine) RemoveCondition(c Condition) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.conditions, c)
	if i < 0 {
		return false
	}
	e.conditions = append(e.conditions[:i], e.conditions[i+1:]...)
	return true
}

// RemoveEvent removes the first occurrence of ev. Returns true if removed.
func (e *Engine) RemoveEvent(ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.events, ev)
	if i < 0 {
		return false
	}
	e.events = append(e.events[:i], e.events[i+1:]...)
	return true
}

// RemoveNilConditions drops absent entries. Returns true if any were removed.
func (e *Engine) RemoveNilConditions() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	var removed bool
	e.conditions, removed = compact(e.conditions)
	return removed
}

// RemoveNilEvents drops absent entries. Returns true if any were removed.
func (e *Engine) RemoveNilEvents() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	var removed bool
	e.events, removed = compact(e.events)
	return removed
}

// snapshotConditions copies the list so callbacks may add or remove
// entries while the engine iterates.
func (e *Engine) snapshotConditions() []Condition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.conditions)
}

func (e *Engine) snapshotEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events)
}

func indexOf[T any](list []T, v T) int {
	for i, item := range list {
		if sameCapability(item, v) {
			return i
		}
	}
	return -1
}

func compact[T any](list []T) ([]T, bool) {
	kept := list[:0]
	for _, item := range list {
		if absent(item) {
			continue
		}
		kept = append(kept, item)
	}
	removed := len(kept) != len(list)
	clear(list[len(kept):])
	return kept, removed
}

// String renders the configuration as space-separated key=value pairs.
func (c Config) String() string {
	return "combinator=" + c.Combinator.String() +
		" reversal=" + c.Reversal.String() +
		" necessity=" + c.Necessity.String() +
		" polarity=" + c.Polarity.String() +
		" polarity_from_requirement=" + c.FromRequirement.String() +
		" trigger_behavior=" + c.TriggerBehavior.String() +
		" delay=" + c.Delay.String()
}
