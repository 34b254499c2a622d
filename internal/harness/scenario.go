package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/condevent/internal/compiler"
	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/ir"
)

// Scenario is one scripted run of an engine.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Ruleset supplies the engine modes. Its component lists must be empty;
	// components come from Conditions and Events.
	Ruleset ir.Ruleset `yaml:"ruleset"`

	Conditions []ConditionSpec `yaml:"conditions"`
	Events     []EventSpec     `yaml:"events"`
	Init       InitSpec        `yaml:"init"`
	Steps      []Step          `yaml:"steps"`
	Assertions []Assertion     `yaml:"assertions"`
}

// ConditionSpec declares a scripted condition.
type ConditionSpec struct {
	Name    string `yaml:"name"`
	Results []bool `yaml:"results,omitempty"`
	Default bool   `yaml:"default,omitempty"`
	Absent  bool   `yaml:"absent,omitempty"`
}

// EventSpec declares a recording event sink.
type EventSpec struct {
	Name   string `yaml:"name"`
	Panic  bool   `yaml:"panic,omitempty"`
	Absent bool   `yaml:"absent,omitempty"`
}

// Timer host choices for InitSpec.TimerHost.
const (
	TimerHostManual = "manual"
	TimerHostNone   = "none"
)

// InitSpec controls the initial Init call. In YAML it is either a bool or a
// mapping with enabled, timer_host and owner.
type InitSpec struct {
	Disabled  bool   `yaml:"-"`
	TimerHost string `yaml:"-"`
	Owner     string `yaml:"-"`
}

// UnmarshalYAML accepts "init: false" as well as the mapping form.
func (s *InitSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var enabled bool
		if err := n.Decode(&enabled); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		s.Disabled = !enabled
		return nil
	}

	var raw struct {
		Enabled   *bool  `yaml:"enabled"`
		TimerHost string `yaml:"timer_host"`
		Owner     string `yaml:"owner"`
	}
	if err := n.Decode(&raw); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	s.Disabled = raw.Enabled != nil && !*raw.Enabled
	s.TimerHost = raw.TimerHost
	s.Owner = raw.Owner
	return nil
}

func (s InitSpec) host() string {
	if s.TimerHost == "" {
		return TimerHostManual
	}
	return s.TimerHost
}

func (s InitSpec) owner() string {
	if s.Owner == "" {
		return "harness"
	}
	return s.Owner
}

// Step is one driver call. Exactly one action field is set.
type Step struct {
	Update    *TriggerStep `yaml:"update,omitempty"`
	Check     *TriggerStep `yaml:"check,omitempty"`
	Dispatch  *TriggerStep `yaml:"dispatch,omitempty"`
	Reset     string       `yaml:"reset,omitempty"`
	SetActive string       `yaml:"set_active,omitempty"`
	Advance   string       `yaml:"advance,omitempty"`
	Init      bool         `yaml:"init,omitempty"`
	Teardown  bool         `yaml:"teardown,omitempty"`
	Clear     bool         `yaml:"clear,omitempty"`

	// Expect is compared with the return value of update, check and
	// dispatch steps.
	Expect *bool `yaml:"expect,omitempty"`
}

// TriggerStep carries the arguments of update, check and dispatch. An
// empty Trigger passes a nil trigger.
type TriggerStep struct {
	Trigger        string `yaml:"trigger,omitempty"`
	Positive       bool   `yaml:"positive"`
	RequirementMet bool   `yaml:"requirement_met,omitempty"`
}

// Step action names, as used in the trace and error messages.
const (
	StepUpdate    = "update"
	StepCheck     = "check"
	StepDispatch  = "dispatch"
	StepReset     = "reset"
	StepSetActive = "set_active"
	StepAdvance   = "advance"
	StepInit      = "init"
	StepTeardown  = "teardown"
	StepClear     = "clear"
)

// actions lists the action names set on the step.
func (s Step) actions() []string {
	var out []string
	set := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	set(s.Update != nil, StepUpdate)
	set(s.Check != nil, StepCheck)
	set(s.Dispatch != nil, StepDispatch)
	set(s.Reset != "", StepReset)
	set(s.SetActive != "", StepSetActive)
	set(s.Advance != "", StepAdvance)
	set(s.Init, StepInit)
	set(s.Teardown, StepTeardown)
	set(s.Clear, StepClear)
	return out
}

// Action returns the name of the step's action, or "" if none or several
// are set.
func (s Step) Action() string {
	if a := s.actions(); len(a) == 1 {
		return a[0]
	}
	return ""
}

// Assertion type constants.
const (
	AssertSinkCount      = "sink_count"
	AssertConditionCalls = "condition_calls"
	AssertSinkReceived   = "sink_received"
	AssertTraceCount     = "trace_count"
	AssertStoredCount    = "stored_count"
)

// Stored tables accepted by stored_count.
const (
	TableDispatches   = "dispatches"
	TableSuppressions = "suppressions"
	TableSinkFaults   = "sink_faults"
)

// Assertion validates the outcome of a run.
type Assertion struct {
	Type string `yaml:"type"`

	// Event names the sink (sink_count, sink_received).
	Event string `yaml:"event,omitempty"`

	// Condition names the condition (condition_calls).
	Condition string `yaml:"condition,omitempty"`

	// Kind is a trace event kind (trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Table is a dispatch log table (stored_count).
	Table string `yaml:"table,omitempty"`

	Count int `yaml:"count,omitempty"`

	// Index selects the notification for sink_received.
	Index          int    `yaml:"index,omitempty"`
	Trigger        string `yaml:"trigger,omitempty"`
	Polarity       *bool  `yaml:"polarity,omitempty"`
	RequirementMet *bool  `yaml:"requirement_met,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if len(s.Ruleset.Conditions) > 0 || len(s.Ruleset.Events) > 0 {
		return fmt.Errorf("ruleset: components belong in the scenario's conditions and events lists")
	}
	if _, err := compiler.ConfigFromRuleset(&s.Ruleset); err != nil {
		return fmt.Errorf("ruleset: %w", err)
	}

	switch s.Init.host() {
	case TimerHostManual, TimerHostNone:
	default:
		return fmt.Errorf("init.timer_host: unknown host %q", s.Init.TimerHost)
	}

	conditions := make(map[string]bool)
	for i, c := range s.Conditions {
		if c.Absent {
			continue
		}
		if c.Name == "" {
			return fmt.Errorf("conditions[%d]: name is required", i)
		}
		if conditions[c.Name] {
			return fmt.Errorf("conditions[%d]: duplicate name %q", i, c.Name)
		}
		conditions[c.Name] = true
	}

	events := make(map[string]bool)
	for i, ev := range s.Events {
		if ev.Absent {
			continue
		}
		if ev.Name == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
		if events[ev.Name] {
			return fmt.Errorf("events[%d]: duplicate name %q", i, ev.Name)
		}
		events[ev.Name] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(step, s.Init.host()); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, conditions, events); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, host string) error {
	actions := step.actions()
	switch len(actions) {
	case 0:
		return fmt.Errorf("no action set")
	case 1:
	default:
		return fmt.Errorf("exactly one action allowed, got %v", actions)
	}

	switch action := actions[0]; action {
	case StepUpdate, StepCheck, StepDispatch:
	default:
		if step.Expect != nil {
			return fmt.Errorf("expect is not allowed on %s", action)
		}
	}

	if step.Reset != "" {
		if _, err := engine.ParseResetScope(step.Reset); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if step.SetActive != "" {
		if _, err := engine.ParseActiveStatus(step.SetActive); err != nil {
			return fmt.Errorf("set_active: %w", err)
		}
	}
	if step.Advance != "" {
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("advance: duration must not be negative")
		}
		if host != TimerHostManual {
			return fmt.Errorf("advance requires init.timer_host %q", TimerHostManual)
		}
	}
	return nil
}

func validateAssertion(a Assertion, conditions, events map[string]bool) error {
	if a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}

	needEvent := func() error {
		if a.Event == "" {
			return fmt.Errorf("event is required for %s", a.Type)
		}
		if !events[a.Event] {
			return fmt.Errorf("unknown event %q", a.Event)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertSinkCount:
		return needEvent()
	case AssertSinkReceived:
		if a.Index < 0 {
			return fmt.Errorf("index must be non-negative")
		}
		return needEvent()
	case AssertConditionCalls:
		if a.Condition == "" {
			return fmt.Errorf("condition is required for %s", a.Type)
		}
		if !conditions[a.Condition] {
			return fmt.Errorf("unknown condition %q", a.Condition)
		}
	case AssertTraceCount:
		switch a.Kind {
		case KindCheck, KindFire, KindDispatch, KindSuppress, KindFault:
		default:
			return fmt.Errorf("unknown trace kind %q", a.Kind)
		}
	case AssertStoredCount:
		switch a.Table {
		case TableDispatches, TableSuppressions, TableSinkFaults:
		default:
			return fmt.Errorf("unknown table %q", a.Table)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
