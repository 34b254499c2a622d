package engine

// shouldBypassRequirementCheck reports whether dispatch may proceed without
// the requirement holding. positive is the polarity-mode-transformed polarity.
func (e *Engine) shouldBypassRequirementCheck(positive bool) bool {
	return Bypasses(e.cfg.Necessity, positive)
}
