package events

import (
	"log/slog"

	"github.com/roach88/condevent/internal/engine"
)

// Log writes one structured record per dispatch.
type Log struct {
	engine.BaseEvent

	Logger  *slog.Logger
	Message string

	// LogTrigger enables the per-dispatch record.
	LogTrigger bool

	// LogLifecycle adds records for Init, Teardown and Reset.
	LogLifecycle bool
}

// NewLog returns a Log that records dispatches only.
func NewLog(logger *slog.Logger, message string) *Log {
	return &Log{Logger: logger, Message: message, LogTrigger: true}
}

func (l *Log) TriggerEvent(e *engine.Engine, trigger any, positive, requirementMet bool) {
	if !l.LogTrigger {
		return
	}
	l.logger().Info("triggered",
		"engine", e.Name(),
		"owner", engine.TriggerName(e.Owner()),
		"trigger", engine.TriggerName(trigger),
		"positive", positive,
		"requirement_met", requirementMet,
		"message", l.Message,
	)
}

func (l *Log) Init(e *engine.Engine)     { l.lifecycle(e, "initialized") }
func (l *Log) Teardown(e *engine.Engine) { l.lifecycle(e, "torn down") }
func (l *Log) Reset(e *engine.Engine)    { l.lifecycle(e, "reset") }

func (l *Log) lifecycle(e *engine.Engine, what string) {
	if !l.LogLifecycle {
		return
	}
	l.logger().Info(what,
		"engine", e.Name(),
		"owner", engine.TriggerName(e.Owner()),
		"message", l.Message,
	)
}

func (l *Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
