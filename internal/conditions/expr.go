package conditions

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/roach88/condevent/internal/engine"
)

// exprCostLimit bounds the work one evaluation may do.
const exprCostLimit = 10000

// Expr holds when a CEL expression evaluates to true. The expression sees:
//
//	positive  bool    polarity after the engine's polarity mode
//	trigger   string  trigger name, "NULL" when absent
//	owner     string  owner name, "NULL" before Init
//	engine    string  engine name
//
// Evaluation errors count as false and are logged.
type Expr struct {
	engine.BaseCondition

	source string
	prg    cel.Program
	logger *slog.Logger
}

// NewExpr compiles source once. The expression must have a bool result.
func NewExpr(source string, logger *slog.Logger) (*Expr, error) {
	env, err := cel.NewEnv(
		cel.Variable("positive", cel.BoolType),
		cel.Variable("trigger", cel.StringType),
		cel.Variable("owner", cel.StringType),
		cel.Variable("engine", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", source, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile %q: result type is %s, want bool", source, out)
	}

	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(exprCostLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", source, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Expr{source: source, prg: prg, logger: logger}, nil
}

// Source returns the expression text.
func (x *Expr) Source() string { return x.source }

func (x *Expr) CheckCondition(e *engine.Engine, trigger any, positive bool) bool {
	input := map[string]any{
		"positive": positive,
		"trigger":  engine.TriggerName(trigger),
		"owner":    engine.TriggerName(e.Owner()),
		"engine":   e.Name(),
	}

	out, _, err := x.prg.Eval(input)
	if err != nil {
		x.logger.Warn("condition expression failed",
			"engine", e.Name(),
			"expr", x.source,
			"error", err,
		)
		return false
	}
	val, ok := out.Value().(bool)
	if !ok {
		x.logger.Warn("condition expression result not bool",
			"engine", e.Name(),
			"expr", x.source,
			"type", fmt.Sprintf("%T", out.Value()),
		)
		return false
	}
	return val
}
