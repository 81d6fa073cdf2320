// Package orchestrator is the coordination core of the gateway.
//
// # Control flow
//
// A client creates a task; the record is persisted and its id queued for
// the task's agent type. An agent polls: the next id is popped (atomically
// per entry), the record transitions to in_progress and is bound to the
// agent, and the agent is marked busy. The agent works externally and
// submits a result; the retry policy decides whether the task completes,
// re-queues at the head for retry, or dead-letters after exhausting its
// retry budget. The worker is released on every submission.
//
// # Timeout monitor
//
// The Monitor runs in the gateway process on a fixed interval and forces
// tasks stuck in_progress past their deadline through the same failure
// path, preserving the retry/dead-letter rules.
//
// # Concurrency contract
//
// Callers are concurrent independent processes sharing one store. "A task
// id is popped by at most one poller" is guaranteed. "A task record always
// reflects the most recent operation" is not: record writes are
// last-write-wins without compare-and-swap, and callers must tolerate
// staleness between a poll response and a later status read.
package orchestrator
