package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/condevent/internal/store"
	"github.com/roach88/condevent/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error renders expected and actual followed by the trace for context.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] step %d %s", ev.Seq, ev.Step, ev.Kind)
		switch ev.Kind {
		case KindCheck:
			fmt.Fprintf(&buf, " %s positive=%t result=%t", ev.Name, ev.Positive, ev.Result)
		case KindFire:
			fmt.Fprintf(&buf, " %s trigger=%s positive=%t met=%t", ev.Name, ev.Trigger, ev.Positive, ev.RequirementMet)
		case KindDispatch:
			fmt.Fprintf(&buf, " trigger=%s positive=%t met=%t delayed=%t", ev.Trigger, ev.Positive, ev.RequirementMet, ev.Delayed)
		case KindSuppress:
			fmt.Fprintf(&buf, " trigger=%s reason=%s", ev.Trigger, ev.Reason)
		case KindFault:
			fmt.Fprintf(&buf, " %s index=%d", ev.Name, ev.Index)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// AssertionContext carries what assertions inspect besides the trace.
type AssertionContext struct {
	Ctx        context.Context
	Store      *store.Store
	Engine     string
	Conditions map[string]*testutil.ScriptedCondition
	Events     map[string]*testutil.RecordingEvent
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result.Trace, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertSinkCount:
		return assertSinkCount(trace, a, actx)
	case AssertConditionCalls:
		return assertConditionCalls(trace, a, actx)
	case AssertSinkReceived:
		return assertSinkReceived(trace, a, actx)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertStoredCount:
		return assertStoredCount(trace, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertSinkCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	ev, ok := actx.Events[a.Event]
	if !ok {
		return fmt.Errorf("unknown event %q", a.Event)
	}
	if got := len(ev.Calls()); got != a.Count {
		return &AssertionError{
			Type:     AssertSinkCount,
			Expected: fmt.Sprintf("%d notifications of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d notifications", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertConditionCalls(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	c, ok := actx.Conditions[a.Condition]
	if !ok {
		return fmt.Errorf("unknown condition %q", a.Condition)
	}
	if got := c.Calls(); got != a.Count {
		return &AssertionError{
			Type:     AssertConditionCalls,
			Expected: fmt.Sprintf("%d checks of %s", a.Count, a.Condition),
			Actual:   fmt.Sprintf("%d checks", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertSinkReceived compares one notification. Unset fields match
// anything.
func assertSinkReceived(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	ev, ok := actx.Events[a.Event]
	if !ok {
		return fmt.Errorf("unknown event %q", a.Event)
	}
	calls := ev.Calls()
	if a.Index >= len(calls) {
		return &AssertionError{
			Type:     AssertSinkReceived,
			Expected: fmt.Sprintf("notification %d of %s", a.Index, a.Event),
			Actual:   fmt.Sprintf("only %d notifications", len(calls)),
			Trace:    trace,
		}
	}

	call := calls[a.Index]
	var mismatches []string
	if a.Trigger != "" && call.Trigger != a.Trigger {
		mismatches = append(mismatches, fmt.Sprintf("trigger=%s", call.Trigger))
	}
	if a.Polarity != nil && call.Positive != *a.Polarity {
		mismatches = append(mismatches, fmt.Sprintf("polarity=%t", call.Positive))
	}
	if a.RequirementMet != nil && call.RequirementMet != *a.RequirementMet {
		mismatches = append(mismatches, fmt.Sprintf("requirement_met=%t", call.RequirementMet))
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertSinkReceived,
		Expected: fmt.Sprintf("notification %d of %s to match %s", a.Index, a.Event, describeExpected(a)),
		Actual:   strings.Join(mismatches, " "),
		Trace:    trace,
	}
}

func describeExpected(a Assertion) string {
	var parts []string
	if a.Trigger != "" {
		parts = append(parts, "trigger="+a.Trigger)
	}
	if a.Polarity != nil {
		parts = append(parts, fmt.Sprintf("polarity=%t", *a.Polarity))
	}
	if a.RequirementMet != nil {
		parts = append(parts, fmt.Sprintf("requirement_met=%t", *a.RequirementMet))
	}
	return strings.Join(parts, " ")
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	got := 0
	for _, ev := range trace {
		if ev.Kind == a.Kind {
			got++
		}
	}
	if got != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d %s events", got, a.Kind),
			Trace:    trace,
		}
	}
	return nil
}

// assertStoredCount counts rows the recorder wrote for the engine.
func assertStoredCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	if actx.Store == nil {
		return fmt.Errorf("stored_count requires a store")
	}

	var got int
	switch a.Table {
	case TableDispatches:
		rows, err := actx.Store.ListDispatches(actx.Ctx, actx.Engine)
		if err != nil {
			return fmt.Errorf("list dispatches: %w", err)
		}
		got = len(rows)
	case TableSuppressions:
		rows, err := actx.Store.ListSuppressions(actx.Ctx, actx.Engine)
		if err != nil {
			return fmt.Errorf("list suppressions: %w", err)
		}
		got = len(rows)
	case TableSinkFaults:
		rows, err := actx.Store.ListSinkFaults(actx.Ctx, actx.Engine)
		if err != nil {
			return fmt.Errorf("list sink faults: %w", err)
		}
		got = len(rows)
	default:
		return fmt.Errorf("unknown table %q", a.Table)
	}

	if got != a.Count {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", got),
			Trace:    trace,
		}
	}
	return nil
}
