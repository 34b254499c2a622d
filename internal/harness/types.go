package harness

// Trace event kinds.
const (
	KindCheck    = "check"    // a condition was evaluated
	KindFire     = "fire"     // an event sink was notified
	KindDispatch = "dispatch" // dispatch proceeded
	KindSuppress = "suppress" // dispatch was suppressed
	KindFault    = "fault"    // an event sink panicked
)

// TraceEvent is one entry of a run's trace. Which fields are meaningful
// depends on Kind; see canonical.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Kind string `json:"kind"`
	Step int    `json:"step"`

	// Name is the condition (check) or event sink (fire, fault).
	Name string `json:"name,omitempty"`

	ID             string `json:"id,omitempty"`
	Trigger        string `json:"trigger,omitempty"`
	Positive       bool   `json:"positive,omitempty"`
	RequirementMet bool   `json:"requirement_met,omitempty"`
	Result         bool   `json:"result,omitempty"`
	Delayed        bool   `json:"delayed,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Index          int    `json:"index,omitempty"`
}

// canonical renders the event for canonical JSON, keeping only the fields
// of its kind.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"kind": e.Kind,
		"step": e.Step,
	}
	switch e.Kind {
	case KindCheck:
		m["condition"] = e.Name
		m["positive"] = e.Positive
		m["result"] = e.Result
	case KindFire:
		m["event"] = e.Name
		m["trigger"] = e.Trigger
		m["positive"] = e.Positive
		m["requirement_met"] = e.RequirementMet
	case KindDispatch:
		m["id"] = e.ID
		m["trigger"] = e.Trigger
		m["positive"] = e.Positive
		m["requirement_met"] = e.RequirementMet
		m["delayed"] = e.Delayed
	case KindSuppress:
		m["trigger"] = e.Trigger
		m["reason"] = e.Reason
	case KindFault:
		m["event"] = e.Name
		m["index"] = e.Index
	}
	return m
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// TraceHash identifies the canonical trace.
	TraceHash string `json:"trace_hash"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of trace events of kind.
func (r *Result) Count(kind string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
