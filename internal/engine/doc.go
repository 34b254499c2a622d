// Package engine implements the conditional event engine.
//
// An engine holds an ordered list of conditions and an ordered list of
// event sinks. The embedder calls Update with an opaque trigger handle and a
// raw polarity (enter versus exit, press versus release). The engine decides
// whether, and with which polarity, to notify the sinks.
//
// PIPELINE:
//
//  1. Requirement evaluator: the polarity mode transforms the raw polarity,
//     the combinator (All, AllOnce, Any, AnyOnce) folds the condition
//     results, the reversal mode may invert the outcome. An empty condition
//     list is always met.
//  2. Dispatch gate: the necessity mode decides whether an unmet
//     requirement stops the update.
//  3. Trigger dispatcher: the polarity is recomputed and folded with the
//     requirement outcome, change detection compares against the previous
//     dispatch, history is recorded and every sink is notified, directly or
//     after a delay scheduled on the embedder's TimerHost.
//
// Each configuration axis is a strategy table in modes.go so the axes stay
// independently testable.
//
// STATE:
//
// The only state carried between updates is the sticky per-index memory of
// the Once combinators and the dispatch history used by change detection.
// Both are cleared by Reset(ResetEngineStateOnly) or Reset(ResetEverything).
//
// DELAYED DISPATCH:
//
// With a positive delay, fan-out is deferred and Update returns true at
// once. A second delayed dispatch does not stop the first; both fire in
// scheduling order and PendingDispatch returns only the latest handle. The
// embedder may stop it. Whether overlapping delayed fan-outs are wanted as
// retrigger semantics is an open question, so the behavior is kept as is.
//
// FAULTS:
//
// Absent list entries (nil, typed nil, or a Liveness reporting !Alive) are
// skipped. A panicking sink is recovered and logged; the remaining sinks
// still run. Calls before Init are ignored.
package engine
