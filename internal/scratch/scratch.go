// ABOUTME: Shared scratch store for caller-defined coordination values with TTL
// ABOUTME: Pure pass-through over the store port; unrelated to tasks and agents

package scratch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2389/swarm-gateway/internal/store"
)

// DefaultTTL applies when a set request omits the TTL.
const DefaultTTL = 3600 * time.Second

// Store is a namespaced key/value space agents use to share coordination
// data across tasks. Values are opaque JSON; the gateway never inspects
// them. Every Set overwrites unconditionally and resets the TTL.
type Store struct {
	store store.Store
}

// New creates a scratch store over the given backend.
func New(s store.Store) *Store {
	return &Store{store: s}
}

// Get returns the value at key, or nil if the key is missing or expired.
// Absence is not an error: callers probe freely.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := s.store.Get(ctx, store.SharedKeyPrefix+key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting shared key %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// Set stores value under key for ttl. A non-positive ttl falls back to
// DefaultTTL.
func (s *Store) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.store.SetWithTTL(ctx, store.SharedKeyPrefix+key, value, ttl); err != nil {
		return fmt.Errorf("setting shared key %s: %w", key, err)
	}
	return nil
}
