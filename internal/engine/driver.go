package engine

// Update evaluates the conditions for trigger and, if gating allows,
// notifies the event sinks. Returns true if dispatch proceeded.
//
// positive is the raw polarity of the trigger, e.g. enter (true) versus
// exit (false). Calls before Init or after Teardown are no-ops.
func (e *Engine) Update(trigger any, positive bool) bool {
	if !e.ready("update") {
		return false
	}

	met := e.evaluate(trigger, positive)

	if !e.shouldBypassRequirementCheck(ApplyPolarity(e.cfg.Polarity, positive)) && !met {
		reason := ReasonRequirementNotMet
		if e.active != ActiveEverything {
			reason = ReasonInactive
		}
		e.suppress(trigger, reason)
		return false
	}

	return e.dispatch(trigger, positive, met)
}

// CheckConditionsOnly runs only the requirement evaluator. Sticky state
// still advances under a Once combinator.
func (e *Engine) CheckConditionsOnly(trigger any, positive bool) bool {
	if !e.ready("check") {
		return false
	}
	return e.evaluate(trigger, positive)
}

// DispatchOnly runs only the trigger dispatcher with a caller-supplied
// requirement outcome.
func (e *Engine) DispatchOnly(trigger any, positive, requirementMet bool) bool {
	if !e.ready("dispatch") {
		return false
	}
	return e.dispatch(trigger, positive, requirementMet)
}

func (e *Engine) ready(op string) bool {
	if e.initialized {
		return true
	}
	e.logger.Warn("engine not initialized, ignoring call",
		"op", op,
		"code", string(ErrCodeNotInitialized),
	)
	return false
}
