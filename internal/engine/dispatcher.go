package engine

// dispatch computes the final polarity, applies change detection, records
// history and fans out, directly or through the timer host. Returns true iff
// dispatch proceeded, even when there are no event sinks.
func (e *Engine) dispatch(trigger any, raw, met bool) bool {
	if e.active != ActiveEverything {
		e.suppress(trigger, ReasonInactive)
		return false
	}

	positive := ApplyPolarity(e.cfg.Polarity, raw)
	positive = ApplyFromRequirement(e.cfg.FromRequirement, positive, met)

	if e.hasFired && !Changed(e.cfg.TriggerBehavior, e.lastPolarity, positive, e.lastMet, met) {
		e.suppress(trigger, ReasonUnchanged)
		return false
	}

	e.hasFired = true
	e.lastPolarity = positive
	e.lastMet = met

	d := Dispatch{
		ID:             e.ids.Generate(),
		Seq:            e.clock.Next(),
		Engine:         e.name,
		Trigger:        TriggerName(trigger),
		Polarity:       positive,
		RequirementMet: met,
	}

	if e.cfg.Delay > 0 && e.timers != nil {
		d.Delay = e.cfg.Delay
		e.obs.dispatch(d)
		e.logger.Debug("dispatch scheduled",
			"id", d.ID,
			"trigger", d.Trigger,
			"polarity", positive,
			"requirement_met", met,
			"delay", e.cfg.Delay,
		)
		// A previous pending timer keeps running; only the handle moves.
		e.pending = e.timers.AfterFunc(e.cfg.Delay, func() {
			e.fanOut(trigger, positive, met)
		})
		return true
	}

	e.obs.dispatch(d)
	e.logger.Debug("dispatching",
		"id", d.ID,
		"trigger", d.Trigger,
		"polarity", positive,
		"requirement_met", met,
	)
	e.fanOut(trigger, positive, met)
	return true
}

// fanOut notifies every present event sink in list order.
func (e *Engine) fanOut(trigger any, positive, met bool) {
	for i, ev := range e.snapshotEvents() {
		if absent(ev) {
			continue
		}
		e.notify(i, ev, trigger, positive, met)
	}
}

// notify isolates one sink: a panic is recovered, logged and reported so
// the remaining sinks still run.
func (e *Engine) notify(index int, ev Event, trigger any, positive, met bool) {
	defer func() {
		if r := recover(); r != nil {
			err := NewSinkPanicError(e.name, index, r)
			e.logger.Error("event sink panicked",
				"index", index,
				"trigger", TriggerName(trigger),
				"error", err,
			)
			e.obs.sinkFault(e.name, index, err)
		}
	}()
	ev.TriggerEvent(e, trigger, positive, met)
}

func (e *Engine) suppress(trigger any, reason string) {
	s := Suppression{
		Seq:     e.clock.Next(),
		Engine:  e.name,
		Trigger: TriggerName(trigger),
		Reason:  reason,
	}
	e.logger.Debug("dispatch suppressed", "trigger", s.Trigger, "reason", reason)
	e.obs.suppressed(s)
}
