// Package harness runs scripted learner sessions as conformance tests.
//
// A scenario is YAML:
//
//	name: heapify_three
//	array: [5, 3, 8]
//	steps:
//	  - action: AddNode
//	  - action: SwapWithParent
//	    expect: NoValidParent
//	assertions:
//	  - type: heap_data
//	    values: [5]
//
// Run dispatches every step through the real engine into an in-memory
// SQLite store, reads the trace back, replays it, and evaluates the
// assertions. Clock, time source and run id are fixed, so the trace is
// byte-stable and can be compared against a golden file with
// RunWithGolden.
package harness
