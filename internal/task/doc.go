// Package task defines the task record and its lifecycle persistence.
//
// A task is created pending, moves to in_progress exactly once per poll,
// and terminates completed or failed. A retryable failure sends it back to
// pending for a fresh poll cycle. The Manager is the sole writer of task
// records; everything else correlates by task id.
//
// Updates are whole-record writes with last-write-wins semantics. The store
// offers no compare-and-swap, so two writers racing on the same id (say a
// result submission and a timeout sweep) can clobber each other's fields.
// That contract is deliberate — callers must not assume a read reflects the
// most recent operation.
package task
