// ABOUTME: Store interface for the shared key-value + list state behind the gateway
// ABOUTME: All orchestration components persist through this port, never a concrete backend

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist or has expired.
var ErrNotFound = errors.New("not found")

// ErrEmptyList is returned by ListPopHead when the list has no entries.
var ErrEmptyList = errors.New("list is empty")

// Store is the port over the shared key-value + list store that holds all
// orchestration state: task records, agent records, queues, and scratch
// entries. Implementations must make ListPopHead atomic per entry — two
// concurrent pops can never return the same entry. No other operation is
// atomic across keys; record updates are plain read-then-write and
// last-write-wins under concurrent writers.
type Store interface {
	// Get retrieves the value at key. Returns ErrNotFound for missing or
	// expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key with no expiry, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithTTL stores value at key and expires it after ttl. The TTL is
	// reset on every call.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all live keys with the given prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// ListPushHead prepends value to the list at key, creating it if needed.
	ListPushHead(ctx context.Context, key, value string) error

	// ListPushTail appends value to the list at key, creating it if needed.
	ListPushTail(ctx context.Context, key, value string) error

	// ListPopHead removes and returns the head entry of the list at key.
	// Returns ErrEmptyList when the list is empty or missing.
	ListPopHead(ctx context.Context, key string) (string, error)

	// ListRange returns all entries of the list at key, head first, without
	// removing them. A missing list yields an empty slice.
	ListRange(ctx context.Context, key string) ([]string, error)

	// ListLen returns the number of entries in the list at key.
	ListLen(ctx context.Context, key string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// Key namespaces shared by every backend. Kept here so the layout is defined
// in exactly one place.
const (
	TaskKeyPrefix   = "task:"
	AgentKeyPrefix  = "agent:"
	QueueKeyPrefix  = "queue:"
	SharedKeyPrefix = "shared:"

	// DeadLetterKey is the queue holding task ids that exhausted their retries.
	DeadLetterKey = "queue:dead-letter"
)
