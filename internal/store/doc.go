// Package store provides a SQLite-backed dispatch log.
//
// The log is append-only:
//   - Rulesets: canonical JSON bodies keyed by content hash
//   - Dispatches: every proceeded dispatch, keyed by dispatch ID
//   - Suppressions: every dispatch attempt that did not proceed
//   - Sink faults: recovered event sink panics
//
// Ordering uses the engine's logical seq, never wall-clock time. All list
// queries ORDER BY seq ASC with a binary-collated tie-break so results are
// identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Recorder adapts a Store to engine.Observer.
package store
