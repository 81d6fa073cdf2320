// Package scratch is the shared key-value space agents use to pass
// coordination data between tasks.
//
// Values are opaque JSON set and read through the get_shared_state and
// set_shared_state tools. Every value expires: a set without a TTL gets
// DefaultTTL, and every overwrite resets the clock. Reads of missing or
// expired keys return nil rather than an error, so agents can probe for
// state another agent may not have written yet.
//
// The package is a thin namespace over the store port and holds no state
// of its own.
package scratch
