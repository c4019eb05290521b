// Package pipeline runs ordered plans of named processing stages against a
// shared store of named values.
//
// A plan is a fixed []Stage. Each stage declares the value-store keys it
// reads (Inputs, passed positionally to its Processor) and the keys it
// writes (Outputs). The Runner walks the plan in order, resolves inputs,
// invokes the processor with a bounded retry budget, and commits the result
// back to the store. Execution is strictly linear and fail-fast: the first
// unrecovered failure aborts the run and no later stage is attempted.
//
// Run returns a RunResult either way. On success it carries the final value
// store; on failure it carries the store as of the failing stage (earlier
// stages' outputs included, the failing stage's excluded) plus a single
// Failure naming the stage and the reason.
//
// Three failure kinds exist. Missing inputs are detected before the
// processor runs and are never retried. Processor errors consume the
// stage's retry budget, with a fixed pause between attempts. Output-shape
// mismatches are detected after a successful attempt and are fatal
// regardless of remaining retries.
//
// Plans are immutable data and safe to reuse across runs; each Run gets a
// fresh value store seeded from the caller's initial values.
package pipeline
