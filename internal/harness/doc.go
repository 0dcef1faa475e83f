// Package harness runs YAML conformance scenarios against the engine with
// the standard processors.
//
// # Scenario Format
//
//	name: counter_increment
//	description: "What this scenario validates"
//	run_token: fixed-token        # optional, defaults to "scenario-<name>"
//	gas_budget: 500               # optional, applied to every call
//	document:
//	  counter: 0
//	  contracts:
//	    timeline: { type: Timeline Channel, timelineId: alice }
//	events:
//	  - type: Timeline Entry
//	    timeline: { timelineId: alice }
//	expect:
//	  error: LOOP_DETECTED        # error code, or a substring of the message
//	  emitted_types: [Document Processing Initiated, Document Update]
//	  state: { /counter: 1 }
//	  gas_used: 120
//	assertions:
//	  - type: emitted_contains
//	    event: { type: Document Update, path: /counter }
//	  - type: emitted_order
//	    types: [Document Processing Initiated, Document Update]
//	  - type: emitted_count
//	    event_type: Document Update
//	    count: 1
//	  - type: final_state
//	    path: /counter
//	    expect: 1
//
// The document is initialized first; the events, if any, are then processed
// in one ProcessEvents call on the initialized state. Emitted events of both
// calls are concatenated.
//
// # Matching
//
// Expected values match by subset: maps need only the listed keys, lists
// only the listed elements in any order. Numbers compare after the same
// normalization documents go through, so 1 and 1.0 are equal.
//
// # Deterministic Testing
//
// Every scenario runs on a fresh engine with a fixed run token and tracing
// enabled. The trace records executed and dropped tasks, applied patches
// and run outcomes in execution order, which makes it stable enough for
// golden comparison:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/counter_increment.yaml")
//	if err != nil {
//	    t.Fatal(err)
//	}
//	if err := harness.RunWithGolden(t, scenario); err != nil {
//	    t.Fatal(err)
//	}
package harness
