package engine

import (
	"fmt"
	"strings"
)

// Combinator selects how condition results combine into the requirement.
type Combinator int

const (
	// CombinatorAll requires every present condition to pass.
	CombinatorAll Combinator = iota
	// CombinatorAllOnce requires every present condition to have passed at
	// least once since the last engine state reset.
	CombinatorAllOnce
	// CombinatorAny requires at least one condition to pass.
	CombinatorAny
	// CombinatorAnyOnce requires at least one condition to have passed at
	// least once since the last engine state reset.
	CombinatorAnyOnce
)

// Sticky reports whether the combinator keeps per-index memory across calls.
func (c Combinator) Sticky() bool {
	return c == CombinatorAllOnce || c == CombinatorAnyOnce
}

// Reversal selects when the combined requirement is inverted.
type Reversal int

const (
	ReversalNever Reversal = iota
	ReversalAlways
	ReversalIfNegative
	ReversalIfPositive
)

// Necessity selects when the requirement must hold for dispatch to proceed.
type Necessity int

const (
	NecessityAlways Necessity = iota
	NecessityNever
	NecessityIfPositive
	NecessityIfNegative
)

// PolarityMode transforms the raw polarity supplied by the caller.
type PolarityMode int

const (
	PolarityDefault PolarityMode = iota
	PolarityReversed
	PolarityAlwaysPositive
	PolarityAlwaysNegative
)

// PolarityFromRequirement folds the requirement outcome into the polarity
// handed to event sinks.
type PolarityFromRequirement int

const (
	// FromRequirementNone leaves polarity unchanged.
	FromRequirementNone PolarityFromRequirement = iota
	// FromRequirementOverwrite replaces polarity with the requirement outcome.
	FromRequirementOverwrite
	// FromRequirementAnd is polarity AND requirement.
	FromRequirementAnd
	// FromRequirementOr is polarity OR requirement.
	FromRequirementOr
)

// TriggerBehavior gates dispatch on changes since the previous dispatch.
type TriggerBehavior int

const (
	TriggerAlways TriggerBehavior = iota
	TriggerIfPolarityChanged
	TriggerIfRequirementChanged
	TriggerIfPolarityOrRequirementChanged
)

// ActiveStatus controls which capabilities may run.
type ActiveStatus int

const (
	// ActiveEverything allows evaluation and dispatch.
	ActiveEverything ActiveStatus = iota
	// ActiveConditionsOnly allows evaluation but never dispatches.
	ActiveConditionsOnly
	// ActiveNothing short-circuits evaluation to false and never dispatches.
	ActiveNothing
)

// ResetScope selects what Reset clears.
type ResetScope int

const (
	ResetEverything ResetScope = iota
	ResetEngineStateOnly
	ResetConditionsOnly
	ResetEventsOnly
)

// Strategy tables, one per configuration axis. Each entry is a pure function
// so the axes can be exercised independently.

var polarityTable = map[PolarityMode]func(positive bool) bool{
	PolarityDefault:        func(p bool) bool { return p },
	PolarityReversed:       func(p bool) bool { return !p },
	PolarityAlwaysPositive: func(bool) bool { return true },
	PolarityAlwaysNegative: func(bool) bool { return false },
}

var reversalTable = map[Reversal]func(met, positive bool) bool{
	ReversalNever:      func(met, _ bool) bool { return met },
	ReversalAlways:     func(met, _ bool) bool { return !met },
	ReversalIfNegative: func(met, p bool) bool { return met != !p },
	ReversalIfPositive: func(met, p bool) bool { return met != p },
}

// necessityTable reports whether the requirement check is bypassed for the
// given transformed polarity.
var necessityTable = map[Necessity]func(positive bool) bool{
	NecessityAlways:     func(bool) bool { return false },
	NecessityNever:      func(bool) bool { return true },
	NecessityIfPositive: func(p bool) bool { return !p },
	NecessityIfNegative: func(p bool) bool { return p },
}

var fromRequirementTable = map[PolarityFromRequirement]func(positive, met bool) bool{
	FromRequirementNone:      func(p, _ bool) bool { return p },
	FromRequirementOverwrite: func(_, met bool) bool { return met },
	FromRequirementAnd:       func(p, met bool) bool { return p && met },
	FromRequirementOr:        func(p, met bool) bool { return p || met },
}

// changedTable reports whether a dispatch counts as a change against the
// remembered history. Only consulted after the first dispatch.
var changedTable = map[TriggerBehavior]func(lastP, p, lastMet, met bool) bool{
	TriggerAlways:                         func(_, _, _, _ bool) bool { return true },
	TriggerIfPolarityChanged:              func(lastP, p, _, _ bool) bool { return lastP != p },
	TriggerIfRequirementChanged:           func(_, _, lastMet, met bool) bool { return lastMet != met },
	TriggerIfPolarityOrRequirementChanged: func(lastP, p, lastMet, met bool) bool { return lastP != p || lastMet != met },
}

// ApplyPolarity transforms a raw polarity under the given mode. Unknown modes
// behave like PolarityAlwaysNegative.
func ApplyPolarity(mode PolarityMode, positive bool) bool {
	if fn, ok := polarityTable[mode]; ok {
		return fn(positive)
	}
	return false
}

// ApplyReversal inverts met according to the reversal mode and working
// polarity. Unknown modes behave like ReversalIfPositive.
func ApplyReversal(mode Reversal, met, positive bool) bool {
	if fn, ok := reversalTable[mode]; ok {
		return fn(met, positive)
	}
	return reversalTable[ReversalIfPositive](met, positive)
}

// Bypasses reports whether the necessity mode skips the requirement check.
// Unknown modes behave like NecessityIfNegative.
func Bypasses(mode Necessity, positive bool) bool {
	if fn, ok := necessityTable[mode]; ok {
		return fn(positive)
	}
	return necessityTable[NecessityIfNegative](positive)
}

// ApplyFromRequirement folds met into positive. Unknown modes behave like
// FromRequirementOr.
func ApplyFromRequirement(mode PolarityFromRequirement, positive, met bool) bool {
	if fn, ok := fromRequirementTable[mode]; ok {
		return fn(positive, met)
	}
	return positive || met
}

// Changed reports whether a dispatch with (positive, met) differs from the
// remembered (lastPositive, lastMet) under the behavior. Unknown behaviors
// behave like TriggerIfPolarityOrRequirementChanged.
func Changed(mode TriggerBehavior, lastPositive, positive, lastMet, met bool) bool {
	fn, ok := changedTable[mode]
	if !ok {
		fn = changedTable[TriggerIfPolarityOrRequirementChanged]
	}
	return fn(lastPositive, positive, lastMet, met)
}

var (
	combinatorNames = []string{"all", "all_once", "any", "any_once"}
	reversalNames   = []string{"never", "always", "if_negative", "if_positive"}
	necessityNames  = []string{"always", "never", "if_positive", "if_negative"}
	polarityNames   = []string{"default", "reversed", "always_positive", "always_negative"}
	fromReqNames    = []string{"none", "overwrite", "and", "or"}
	behaviorNames   = []string{"always", "if_polarity_changed", "if_requirement_changed", "if_polarity_or_requirement_changed"}
	activeNames     = []string{"everything", "conditions_only", "nothing"}
	resetNames      = []string{"everything", "engine_state_only", "conditions_only", "events_only"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q: must be one of %v", kind, s, names)
}

func (c Combinator) String() string              { return enumName(combinatorNames, int(c)) }
func (r Reversal) String() string                { return enumName(reversalNames, int(r)) }
func (n Necessity) String() string               { return enumName(necessityNames, int(n)) }
func (p PolarityMode) String() string            { return enumName(polarityNames, int(p)) }
func (f PolarityFromRequirement) String() string { return enumName(fromReqNames, int(f)) }
func (t TriggerBehavior) String() string         { return enumName(behaviorNames, int(t)) }
func (a ActiveStatus) String() string            { return enumName(activeNames, int(a)) }
func (r ResetScope) String() string              { return enumName(resetNames, int(r)) }

// ParseCombinator parses a snake_case combinator name.
func ParseCombinator(s string) (Combinator, error) {
	v, err := parseEnum("combinator", combinatorNames, s)
	return Combinator(v), err
}

// ParseReversal parses a snake_case reversal name.
func ParseReversal(s string) (Reversal, error) {
	v, err := parseEnum("reversal", reversalNames, s)
	return Reversal(v), err
}

// ParseNecessity parses a snake_case necessity name.
func ParseNecessity(s string) (Necessity, error) {
	v, err := parseEnum("necessity", necessityNames, s)
	return Necessity(v), err
}

// ParsePolarityMode parses a snake_case polarity mode name.
func ParsePolarityMode(s string) (PolarityMode, error) {
	v, err := parseEnum("polarity", polarityNames, s)
	return PolarityMode(v), err
}

// ParsePolarityFromRequirement parses a snake_case polarity-from-requirement name.
func ParsePolarityFromRequirement(s string) (PolarityFromRequirement, error) {
	v, err := parseEnum("polarity_from_requirement", fromReqNames, s)
	return PolarityFromRequirement(v), err
}

// ParseTriggerBehavior parses a snake_case trigger behavior name.
func ParseTriggerBehavior(s string) (TriggerBehavior, error) {
	v, err := parseEnum("trigger_behavior", behaviorNames, s)
	return TriggerBehavior(v), err
}

// ParseActiveStatus parses a snake_case active status name.
func ParseActiveStatus(s string) (ActiveStatus, error) {
	v, err := parseEnum("active status", activeNames, s)
	return ActiveStatus(v), err
}

// ParseResetScope parses a snake_case reset scope name.
func ParseResetScope(s string) (ResetScope, error) {
	v, err := parseEnum("reset scope", resetNames, s)
	return ResetScope(v), err
}

// Enum name lists, exported for schema generation and validation messages.
func CombinatorNames() []string              { return append([]string(nil), combinatorNames...) }
func ReversalNames() []string                { return append([]string(nil), reversalNames...) }
func NecessityNames() []string               { return append([]string(nil), necessityNames...) }
func PolarityModeNames() []string            { return append([]string(nil), polarityNames...) }
func PolarityFromRequirementNames() []string { return append([]string(nil), fromReqNames...) }
func TriggerBehaviorNames() []string         { return append([]string(nil), behaviorNames...) }
