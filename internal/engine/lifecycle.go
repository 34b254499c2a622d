package engine

// Init binds the engine to its owner and notifies every present condition,
// then every present event. Conditions go first since events are more
// likely to depend on conditions than the reverse.
//
// host schedules delayed fan-out and may be nil when no delay is
// configured. A delay without a host is reported once in Diagnostics and
// the engine dispatches synchronously. A repeated Init is a no-op.
func (e *Engine) Init(owner any, host TimerHost) {
	if e.initialized {
		e.logger.Warn("engine already initialized, ignoring init",
			"code", string(ErrCodeAlreadyInitialized),
		)
		return
	}
	e.initialized = true

	e.mu.Lock()
	e.owner = owner
	e.mu.Unlock()

	e.timers = host
	if e.cfg.Delay > 0 && host == nil {
		err := NewMissingTimerHostError(e.name, e.cfg.Delay)
		e.diagnostics = append(e.diagnostics, err)
		e.logger.Warn("invalid configuration", "error", err)
	}

	for _, c := range e.snapshotConditions() {
		if absent(c) {
			continue
		}
		c.Init(e)
	}
	for _, ev := range e.snapshotEvents() {
		if absent(ev) {
			continue
		}
		ev.Init(e)
	}

	e.logger.Info("engine initialized",
		"owner", TriggerName(owner),
		"config", e.cfg.String(),
	)
}

// Teardown notifies every present event, then every present condition, and
// clears the owner handle. A Teardown without a matching Init is a no-op.
// Pending delayed fan-outs are not stopped.
func (e *Engine) Teardown() {
	if !e.initialized {
		return
	}
	e.initialized = false

	for _, ev := range e.snapshotEvents() {
		if absent(ev) {
			continue
		}
		ev.Teardown(e)
	}
	for _, c := range e.snapshotConditions() {
		if absent(c) {
			continue
		}
		c.Teardown(e)
	}

	e.mu.Lock()
	e.owner = nil
	e.mu.Unlock()
	e.timers = nil

	e.logger.Info("engine torn down")
}

// Clear wipes both lists and all runtime state back to construction
// defaults. Configuration, owner and initialization are left alone.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.conditions = nil
	e.events = nil
	e.mu.Unlock()

	e.active = ActiveEverything
	e.sticky = nil
	e.resetHistory()
	e.pending = nil
}

// Reset clears state selected by scope. ResetEverything resets engine state,
// then conditions, then events.
func (e *Engine) Reset(scope ResetScope) {
	switch scope {
	case ResetEverything:
		e.resetEngineState()
		e.resetConditions()
		e.resetEvents()
	case ResetEngineStateOnly:
		e.resetEngineState()
	case ResetConditionsOnly:
		e.resetConditions()
	default:
		e.resetEvents()
	}
}

func (e *Engine) resetEngineState() {
	e.resetHistory()
	e.sticky = make([]bool, len(e.snapshotConditions()))
}

func (e *Engine) resetHistory() {
	e.hasFired = false
	e.lastPolarity = false
	e.lastMet = false
}

func (e *Engine) resetConditions() {
	for _, c := range e.snapshotConditions() {
		if absent(c) {
			continue
		}
		c.Reset(e)
	}
}

func (e *Engine) resetEvents() {
	for _, ev := range e.snapshotEvents() {
		if absent(ev) {
			continue
		}
		ev.Reset(e)
	}
}
