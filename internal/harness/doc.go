// Package harness runs scripted condevent scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: door_enter_exit
//	description: "Dispatch only when polarity changes"
//	ruleset:
//	  trigger_behavior: if_polarity_changed
//	  delay: 100ms
//	conditions:
//	  - name: key
//	    results: [true, false]
//	    default: true
//	  - absent: true
//	events:
//	  - name: door
//	  - name: broken
//	    panic: true
//	init:
//	  timer_host: manual
//	steps:
//	  - update: { trigger: player, positive: true }
//	    expect: true
//	  - advance: 100ms
//	  - reset: engine_state_only
//	assertions:
//	  - type: sink_count
//	    event: door
//	    count: 1
//
// Conditions are scripted: each check consumes the next entry of results,
// then returns default. Events record every notification. An entry with
// absent: true puts a nil capability in the list.
//
// # Assertion Types
//
//   - sink_count: an event received exactly count notifications
//   - condition_calls: a condition was checked exactly count times
//   - sink_received: notification index of an event matches trigger,
//     polarity and requirement_met (each optional)
//   - trace_count: the trace holds exactly count events of a kind
//   - stored_count: the dispatch log table holds exactly count rows
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite dispatch log, a manual timer host
// driven by advance steps, sequential dispatch IDs and a
// testutil.DeterministicClock stamping the trace, so traces are
// byte-identical across runs and comparable against golden files.
package harness
