// Package conditions provides ready-made engine.Condition implementations.
//
// Chance and MaxTriggerCount gate on randomness and on how often the engine
// asked. Static always returns the same answer. Expr evaluates a CEL
// expression over the trigger, polarity and owner.
//
// All conditions are driven by a single engine and are not safe for
// concurrent use across engines.
package conditions
