package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/condevent/internal/compiler"
	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/ir"
	"github.com/roach88/condevent/internal/store"
	"github.com/roach88/condevent/internal/testutil"
)

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine and harness logs to logger. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// harness drives one engine through a scenario and builds its trace.
// It is the engine's observer and the hook target of every scripted
// capability.
type harness struct {
	engine.NopObserver

	scenario *Scenario
	engine   *engine.Engine
	host     *testutil.ManualTimerHost
	clock    *testutil.DeterministicClock
	store    *store.Store
	recorder *store.Recorder
	logger   *slog.Logger

	conditions map[string]*testutil.ScriptedCondition
	events     map[string]*testutil.RecordingEvent
	eventNames []string

	step   int
	result *Result
}

// Run executes a scenario and returns its result. The error is non-nil
// only when the run could not be set up or its dispatch log failed; failed
// expectations and assertions are reported in Result.Errors.
//
// Each run uses a fresh in-memory dispatch log.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	h, err := newHarness(ctx, s, st, cfg.logger)
	if err != nil {
		return nil, err
	}

	if !s.Init.Disabled {
		h.init()
	}
	for i, step := range s.Steps {
		h.step = i
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	if err := h.recorder.Err(); err != nil {
		return nil, fmt.Errorf("dispatch log: %w", err)
	}

	actx := &AssertionContext{
		Ctx:        ctx,
		Store:      st,
		Engine:     h.engine.Name(),
		Conditions: h.conditions,
		Events:     h.events,
	}
	for _, msg := range EvaluateAssertions(h.result, s.Assertions, actx) {
		h.result.AddError(msg)
	}

	canonical, err := h.result.canonicalTrace()
	if err != nil {
		return nil, fmt.Errorf("canonical trace: %w", err)
	}
	h.result.TraceHash = ir.TraceHash(canonical)
	return h.result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(path string, opts ...Option) (*Scenario, *Result, error) {
	s, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := Run(s, opts...)
	return s, res, err
}

func newHarness(ctx context.Context, s *Scenario, st *store.Store, logger *slog.Logger) (*harness, error) {
	ruleset := s.Ruleset
	if ruleset.Name == "" {
		ruleset.Name = s.Name
	}
	cfg, err := compiler.ConfigFromRuleset(&ruleset)
	if err != nil {
		return nil, fmt.Errorf("ruleset: %w", err)
	}

	hash, err := st.WriteRuleset(ctx, ruleset)
	if err != nil {
		return nil, fmt.Errorf("failed to store ruleset: %w", err)
	}

	h := &harness{
		scenario:   s,
		clock:      testutil.NewDeterministicClock(),
		store:      st,
		recorder:   store.NewRecorder(ctx, st, hash, logger),
		logger:     logger,
		conditions: make(map[string]*testutil.ScriptedCondition),
		events:     make(map[string]*testutil.RecordingEvent),
		result:     NewResult(),
	}
	if s.Init.host() == TimerHostManual {
		h.host = testutil.NewManualTimerHost()
	}

	conds := make([]engine.Condition, 0, len(s.Conditions))
	for _, spec := range s.Conditions {
		if spec.Absent {
			conds = append(conds, nil)
			continue
		}
		c := testutil.NewScriptedCondition(spec.Name, spec.Results...)
		c.Default = spec.Default
		c.OnCheck = h.onCheck
		h.conditions[spec.Name] = c
		conds = append(conds, c)
	}

	events := make([]engine.Event, 0, len(s.Events))
	for _, spec := range s.Events {
		h.eventNames = append(h.eventNames, spec.Name)
		if spec.Absent {
			events = append(events, nil)
			continue
		}
		ev := testutil.NewRecordingEvent(spec.Name)
		ev.Panic = spec.Panic
		ev.OnFire = h.onFire
		h.events[spec.Name] = ev
		events = append(events, ev)
	}

	h.engine = engine.New(
		engine.WithName(ruleset.Name),
		engine.WithConfig(cfg),
		engine.WithConditions(conds...),
		engine.WithEvents(events...),
		engine.WithObserver(h),
		engine.WithObserver(h.recorder),
		engine.WithIDGenerator(testutil.NewSequentialIDs(ruleset.Name)),
		engine.WithLogger(logger),
	)
	return h, nil
}

func (h *harness) init() {
	var host engine.TimerHost
	if h.host != nil {
		host = h.host
	}
	h.engine.Init(h.scenario.Init.owner(), host)
}

// execute runs one step. Parse errors cannot happen after validation but
// are still reported.
func (h *harness) execute(step Step) error {
	var got bool
	switch step.Action() {
	case StepUpdate:
		got = h.engine.Update(trigger(step.Update), step.Update.Positive)
	case StepCheck:
		got = h.engine.CheckConditionsOnly(trigger(step.Check), step.Check.Positive)
	case StepDispatch:
		got = h.engine.DispatchOnly(trigger(step.Dispatch), step.Dispatch.Positive, step.Dispatch.RequirementMet)
	case StepReset:
		scope, err := engine.ParseResetScope(step.Reset)
		if err != nil {
			return err
		}
		h.engine.Reset(scope)
	case StepSetActive:
		status, err := engine.ParseActiveStatus(step.SetActive)
		if err != nil {
			return err
		}
		h.engine.SetActive(status)
	case StepAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		if h.host == nil {
			return fmt.Errorf("advance without a manual timer host")
		}
		h.host.Advance(d)
	case StepInit:
		h.init()
	case StepTeardown:
		h.engine.Teardown()
	case StepClear:
		h.engine.Clear()
	default:
		return fmt.Errorf("step must set exactly one action")
	}

	if step.Expect != nil && got != *step.Expect {
		h.result.AddError(fmt.Sprintf("steps[%d]: %s returned %t, expected %t",
			h.step, step.Action(), got, *step.Expect))
	}
	h.logger.Debug("step completed", "step", h.step, "action", step.Action(), "returned", got)
	return nil
}

func trigger(ts *TriggerStep) any {
	if ts.Trigger == "" {
		return nil
	}
	return ts.Trigger
}

func (h *harness) trace(e TraceEvent) {
	e.Seq = h.clock.Next()
	e.Step = h.step
	h.result.Trace = append(h.result.Trace, e)
}

func (h *harness) onCheck(name string, positive, result bool) {
	h.trace(TraceEvent{Kind: KindCheck, Name: name, Positive: positive, Result: result})
}

func (h *harness) onFire(name string, call testutil.SinkCall) {
	h.trace(TraceEvent{
		Kind:           KindFire,
		Name:           name,
		Trigger:        call.Trigger,
		Positive:       call.Positive,
		RequirementMet: call.RequirementMet,
	})
}

func (h *harness) OnDispatch(d engine.Dispatch) {
	h.trace(TraceEvent{
		Kind:           KindDispatch,
		ID:             d.ID,
		Trigger:        d.Trigger,
		Positive:       d.Polarity,
		RequirementMet: d.RequirementMet,
		Delayed:        d.Delayed(),
	})
}

func (h *harness) OnSuppressed(s engine.Suppression) {
	h.trace(TraceEvent{Kind: KindSuppress, Trigger: s.Trigger, Reason: s.Reason})
}

func (h *harness) OnSinkFault(_ string, index int, _ error) {
	name := ""
	if index >= 0 && index < len(h.eventNames) {
		name = h.eventNames[index]
	}
	h.trace(TraceEvent{Kind: KindFault, Name: name, Index: index})
}
