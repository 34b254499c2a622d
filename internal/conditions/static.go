package conditions

import "github.com/roach88/condevent/internal/engine"

// Static always returns Value.
type Static struct {
	engine.BaseCondition
	Value bool
}

func (s *Static) CheckCondition(*engine.Engine, any, bool) bool { return s.Value }
