package engine

import "time"

// Suppression reasons reported to observers.
const (
	ReasonInactive          = "inactive"
	ReasonRequirementNotMet = "requirement_not_met"
	ReasonUnchanged         = "unchanged"
)

// Dispatch describes one proceeded dispatch. It is recorded when gating
// passes, before fan-out, so a delayed dispatch is reported at schedule time.
type Dispatch struct {
	ID             string
	Seq            int64
	Engine         string
	Trigger        string
	Polarity       bool
	RequirementMet bool
	Delay          time.Duration
}

// Delayed reports whether fan-out was deferred onto the timer host.
func (d Dispatch) Delayed() bool {
	return d.Delay > 0
}

// Suppression describes a dispatch attempt that did not proceed.
type Suppression struct {
	Seq     int64
	Engine  string
	Trigger string
	Reason  string
}

// Observer receives engine activity. Observers run synchronously on the
// calling goroutine in registration order and must not call back into the
// engine.
type Observer interface {
	OnEvaluate(engine string, met bool)
	OnDispatch(d Dispatch)
	OnSuppressed(s Suppression)
	OnSinkFault(engine string, index int, err error)
}

// NopObserver ignores everything. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) OnEvaluate(string, bool)        {}
func (NopObserver) OnDispatch(Dispatch)            {}
func (NopObserver) OnSuppressed(Suppression)       {}
func (NopObserver) OnSinkFault(string, int, error) {}

type observers []Observer

func (os observers) evaluate(engine string, met bool) {
	for _, o := range os {
		o.OnEvaluate(engine, met)
	}
}

func (os observers) dispatch(d Dispatch) {
	for _, o := range os {
		o.OnDispatch(d)
	}
}

func (os observers) suppressed(s Suppression) {
	for _, o := range os {
		o.OnSuppressed(s)
	}
}

func (os observers) sinkFault(engine string, index int, err error) {
	for _, o := range os {
		o.OnSinkFault(engine, index, err)
	}
}
