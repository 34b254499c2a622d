package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Ruleset errors (E100-E109)
	ErrRulesetNameEmpty = "E101" // name is required
	ErrInvalidMode      = "E102" // unknown enumerated mode
	ErrInvalidDelay     = "E103" // delay is not a non-negative duration

	// Component errors (E110-E119)
	ErrComponentKindEmpty   = "E110" // kind is required
	ErrUnknownComponentKind = "E111" // kind not in the registry
	ErrDuplicateName        = "E112" // duplicate component name
	ErrInvalidParams        = "E113" // factory rejected params
)

// ValidationError represents a ruleset validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Build when validation fails.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a ruleset against the registry. Returns all errors found
// (does not fail-fast). Component params are checked by running each
// factory once.
func Validate(r *ir.Ruleset, reg *Registry) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrRulesetNameEmpty,
		})
	}

	// E102: every mode must parse
	if _, modeErrs := configFromRuleset(r); len(modeErrs) > 0 {
		errs = append(errs, modeErrs...)
	}

	names := make(map[string]string)
	for i, spec := range r.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		errs = append(errs, validateComponent(field, spec, names)...)
		if spec.Kind == "" {
			continue
		}
		factory, ok := reg.conditions[spec.Kind]
		if !ok {
			errs = append(errs, unknownKind(field, "condition", spec.Kind, reg.ConditionKinds()))
			continue
		}
		if _, err := factory(spec, reg.deps); err != nil {
			errs = append(errs, invalidParams(field, err))
		}
	}
	for i, spec := range r.Events {
		field := fmt.Sprintf("events[%d]", i)
		errs = append(errs, validateComponent(field, spec, names)...)
		if spec.Kind == "" {
			continue
		}
		factory, ok := reg.events[spec.Kind]
		if !ok {
			errs = append(errs, unknownKind(field, "event", spec.Kind, reg.EventKinds()))
			continue
		}
		if _, err := factory(spec, reg.deps); err != nil {
			errs = append(errs, invalidParams(field, err))
		}
	}

	return errs
}

// validateComponent checks kind presence and name uniqueness across both
// lists. names maps each seen name to the field that declared it.
func validateComponent(field string, spec ir.ComponentSpec, names map[string]string) []ValidationError {
	var errs []ValidationError

	// E110: kind is required
	if spec.Kind == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".kind",
			Message: "kind is required",
			Code:    ErrComponentKindEmpty,
		})
	}

	// E112: duplicate name
	if spec.Name != "" {
		if prev, dup := names[spec.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate component name %q (first declared at %s)", spec.Name, prev),
				Code:    ErrDuplicateName,
			})
		} else {
			names[spec.Name] = field
		}
	}

	return errs
}

func unknownKind(field, what, kind string, known []string) ValidationError {
	return ValidationError{
		Field:   field + ".kind",
		Message: fmt.Sprintf("unknown %s kind %q: must be one of %v", what, kind, known),
		Code:    ErrUnknownComponentKind,
	}
}

func invalidParams(field string, err error) ValidationError {
	return ValidationError{
		Field:   field + ".params",
		Message: err.Error(),
		Code:    ErrInvalidParams,
	}
}

// configFromRuleset parses the enumerated modes and delay. Empty fields
// keep the engine defaults.
func configFromRuleset(r *ir.Ruleset) (engine.Config, []ValidationError) {
	cfg := engine.DefaultConfig()
	var errs []ValidationError

	mode := func(field, value string, parse func(string) error) {
		if value == "" {
			return
		}
		if err := parse(value); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidMode})
		}
	}

	mode("combinator", r.Combinator, func(s string) (err error) {
		cfg.Combinator, err = engine.ParseCombinator(s)
		return err
	})
	mode("reversal", r.Reversal, func(s string) (err error) {
		cfg.Reversal, err = engine.ParseReversal(s)
		return err
	})
	mode("necessity", r.Necessity, func(s string) (err error) {
		cfg.Necessity, err = engine.ParseNecessity(s)
		return err
	})
	mode("polarity", r.Polarity, func(s string) (err error) {
		cfg.Polarity, err = engine.ParsePolarityMode(s)
		return err
	})
	mode("polarity_from_requirement", r.PolarityFromRequirement, func(s string) (err error) {
		cfg.FromRequirement, err = engine.ParsePolarityFromRequirement(s)
		return err
	})
	mode("trigger_behavior", r.TriggerBehavior, func(s string) (err error) {
		cfg.TriggerBehavior, err = engine.ParseTriggerBehavior(s)
		return err
	})

	// E103: delay must be a non-negative Go duration
	if r.Delay != "" {
		d, err := time.ParseDuration(r.Delay)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: "delay", Message: err.Error(), Code: ErrInvalidDelay})
		case d < 0:
			errs = append(errs, ValidationError{Field: "delay", Message: "delay must not be negative", Code: ErrInvalidDelay})
		default:
			cfg.Delay = d
		}
	}

	return cfg, errs
}
