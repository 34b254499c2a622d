package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a non-fatal problem detected by the engine. None of these
// abort evaluation; they are logged, reported to observers, and kept in
// Diagnostics where relevant.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Engine is the name of the reporting engine, if it has one.
	Engine string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMissingTimerHost indicates a delay was configured but Init got
	// no timer host. The engine falls back to synchronous dispatch.
	ErrCodeMissingTimerHost RuntimeErrorCode = "MISSING_TIMER_HOST"

	// ErrCodeSinkPanic indicates an event sink panicked during fan-out.
	ErrCodeSinkPanic RuntimeErrorCode = "SINK_PANIC"

	// ErrCodeNotInitialized indicates a call that requires Init.
	ErrCodeNotInitialized RuntimeErrorCode = "NOT_INITIALIZED"

	// ErrCodeAlreadyInitialized indicates a repeated Init.
	ErrCodeAlreadyInitialized RuntimeErrorCode = "ALREADY_INITIALIZED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Engine != "" {
		msg = fmt.Sprintf("%s (engine=%s)", msg, e.Engine)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsSinkFault returns true if the error is a recovered sink panic.
// Uses errors.As to handle wrapped errors.
func IsSinkFault(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSinkPanic
	}
	return false
}

// IsConfigError returns true if the error reports an invalid configuration.
func IsConfigError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMissingTimerHost
	}
	return false
}

// NewSinkPanicError wraps a recovered panic value from the sink at index.
func NewSinkPanicError(engine string, index int, recovered any) *RuntimeError {
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", recovered)
	}
	return &RuntimeError{
		Code:    ErrCodeSinkPanic,
		Message: "event sink panicked during fan-out",
		Engine:  engine,
		Details: map[string]string{"index": fmt.Sprintf("%d", index)},
		Err:     cause,
	}
}

// NewMissingTimerHostError reports a delay configured without a timer host.
func NewMissingTimerHostError(engine string, delay fmt.Stringer) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingTimerHost,
		Message: "dispatch delay configured but no timer host supplied; dispatching synchronously",
		Engine:  engine,
		Details: map[string]string{"delay": delay.String()},
	}
}
