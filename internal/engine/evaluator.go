package engine

// evaluate runs the requirement evaluator and reports the outcome to
// observers. Mutates sticky state only under a Once combinator.
func (e *Engine) evaluate(trigger any, raw bool) bool {
	met := e.requirement(trigger, raw)
	e.logger.Debug("requirement evaluated",
		"trigger", TriggerName(trigger),
		"raw_polarity", raw,
		"combinator", e.cfg.Combinator.String(),
		"met", met,
	)
	e.obs.evaluate(e.name, met)
	return met
}

func (e *Engine) requirement(trigger any, raw bool) bool {
	if e.active == ActiveNothing {
		return false
	}

	conds := e.snapshotConditions()
	if len(conds) == 0 {
		// No constraints never block, regardless of reversal.
		return true
	}

	positive := ApplyPolarity(e.cfg.Polarity, raw)

	var met bool
	switch e.cfg.Combinator {
	case CombinatorAllOnce, CombinatorAnyOnce:
		met = e.combineSticky(conds, trigger, positive)
	default:
		met = e.combine(conds, trigger, positive)
	}

	return ApplyReversal(e.cfg.Reversal, met, positive)
}

// combine evaluates the All and Any combinators with short-circuiting.
// Absent entries are skipped: they neither fail All nor satisfy Any.
func (e *Engine) combine(conds []Condition, trigger any, positive bool) bool {
	all := e.cfg.Combinator != CombinatorAny
	for _, c := range conds {
		if absent(c) {
			continue
		}
		ok := c.CheckCondition(e, trigger, positive)
		if all && !ok {
			return false
		}
		if !all && ok {
			return true
		}
	}
	return all
}

// combineSticky evaluates AllOnce and AnyOnce. An index that has returned
// true once is counted without being invoked again until the engine state
// is reset. A length mismatch with the condition list discards the memory.
func (e *Engine) combineSticky(conds []Condition, trigger any, positive bool) bool {
	if len(e.sticky) != len(conds) {
		e.sticky = make([]bool, len(conds))
	}
	// A condition may reset engine state from its callback; the loop keeps
	// writing to the vector it started with.
	sticky := e.sticky

	present, held := 0, 0
	for i, c := range conds {
		if sticky[i] {
			present++
			held++
			continue
		}
		if absent(c) {
			continue
		}
		present++
		if !c.CheckCondition(e, trigger, positive) {
			continue
		}
		sticky[i] = true
		held++
	}

	if e.cfg.Combinator == CombinatorAnyOnce {
		return held > 0
	}
	return held == present
}
