// Package tools defines the gateway's remote-callable operations.
//
// Each tool pairs a JSON Schema for its arguments with a handler over the
// orchestration core. The registry validates arguments before any handler
// runs, so a schema mismatch never touches state, and it catches handler
// panics so nothing propagates across the call boundary. Callers see a
// result-or-error shape for every operation.
package tools
