// Package task provides a concurrency-primitives library built around
// Task[T]: a consumer-facing handle for a value that may not exist yet,
// paired with a Completer[T] on the producer side.
//
// Constructors
//   - Success, Failed, Cancelled: already-terminal tasks.
//   - StartBlocking: a running task bound to a Completer, for producers that
//     drive completion themselves.
//   - Delay, CancelAfter, FailAfter, SucceedAfter: tasks that complete once
//     GlobalTimer fires a scheduled job.
//   - Chain, ChainAsync: derive one task from another's eventual result.
//
// State machine
// A Task moves from RUNNING to exactly one of SUCCESS, FAILED, or CANCELLED.
// The transition is a two-phase protocol (a transient CANCELLING/
// SUCCEEDING/FAILING state publishes the outcome, then a second
// compare-and-swap makes it observable) so concurrent readers never see a
// terminal state with an unpublished result.
//
// Waiting and subscribing
// Await and its AwaitUninterruptibly/AwaitTimeout/AwaitCondition variants
// block the calling goroutine. OnSuccess, OnFailure, OnCancelled, and
// OnCompletion instead register a callback that fires exactly once,
// synchronously if the task has already reached that outcome by the time
// Subscribe is called. The Async variants run the callback on an Executor
// instead of inline.
//
// Configuration
// Configure(opts ...Option) rebuilds the package-level ambient Executor
// (returned by DefaultExecutor; the *Async variants do not consult it and
// take their Executor as an argument) and metrics Provider. Call it once
// during process initialization; every Task and GlobalTimer created
// afterward instruments through whatever Configure last installed.
package task
