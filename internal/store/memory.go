// ABOUTME: In-memory Store implementation with TTL expiry for tests and standalone runs
// ABOUTME: A background janitor reaps expired keys; reads also check expiry lazily

package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// janitorInterval is how often the cleanup goroutine reaps expired keys.
const janitorInterval = time.Second

// MemoryStore implements Store with plain maps. It is the backend used by
// tests and by single-process deployments that do not need durability.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]memoryEntry
	lists map[string][]string
	done  chan struct{}
	once  sync.Once
}

type memoryEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data:  make(map[string]memoryEntry),
		lists: make(map[string][]string),
		done:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.reapExpired()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) reapExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, e := range s.data {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(s.data, key)
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored state.
	val := make([]byte, len(e.value))
	copy(val, e.value)
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	return s.put(key, value, 0)
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(key, value, ttl)
}

func (s *MemoryStore) put(key string, value []byte, ttl time.Duration) error {
	val := make([]byte, len(value))
	copy(val, value)

	e := memoryEntry{value: val}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var keys []string
	for key, e := range s.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !e.expires.IsZero() && now.After(e.expires) {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *MemoryStore) ListPushHead(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.lists[key] = append([]string{value}, s.lists[key]...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListPushTail(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.lists[key] = append(s.lists[key], value)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListPopHead(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	if len(list) == 0 {
		return "", ErrEmptyList
	}
	head := list[0]
	s.lists[key] = list[1:]
	return head, nil
}

func (s *MemoryStore) ListRange(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryStore) ListLen(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists[key]), nil
}

// Close stops the janitor. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
