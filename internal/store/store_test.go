// ABOUTME: Conformance tests run against every Store backend.
// ABOUTME: Memory and SQLite always run; Redis runs when SWARM_TEST_REDIS_URL is set.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// backends returns every Store implementation available in this environment.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	stores := map[string]Store{
		"memory": NewMemoryStore(),
	}

	sqlitePath := filepath.Join(t.TempDir(), "store.db")
	sqliteStore, err := NewSQLiteStore(sqlitePath)
	if err != nil {
		t.Fatalf("creating sqlite store: %v", err)
	}
	stores["sqlite"] = sqliteStore

	if url := os.Getenv("SWARM_TEST_REDIS_URL"); url != "" {
		redisStore, err := NewRedisStore(context.Background(), url)
		if err != nil {
			t.Fatalf("creating redis store: %v", err)
		}
		stores["redis"] = redisStore
	}

	for _, s := range stores {
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return stores
}

func TestSQLiteInMemorySurvivesPoolChurn(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating in-memory sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	// With zero idle connections every operation runs on a fresh pooled
	// connection, which must still see the schema created at open.
	s.db.SetMaxIdleConns(0)

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set on fresh connection: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get on fresh connection: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want v", got)
	}
	if err := s.ListPushTail(ctx, "q", "a"); err != nil {
		t.Fatalf("push on fresh connection: %v", err)
	}
	if v, err := s.ListPopHead(ctx, "q"); err != nil || v != "a" {
		t.Errorf("pop on fresh connection: got %q, %v", v, err)
	}
}

func TestSQLiteInMemoryStoresAreIsolated(t *testing.T) {
	ctx := context.Background()

	a, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating first store: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	b, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating second store: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	if err := a.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound from the second store, got %v", err)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
				t.Errorf("expected ErrNotFound for missing key, got %v", err)
			}

			if err := s.Set(ctx, "k1", []byte("v1")); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := s.Get(ctx, "k1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != "v1" {
				t.Errorf("got %q, want v1", got)
			}

			// Overwrite
			if err := s.Set(ctx, "k1", []byte("v2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = s.Get(ctx, "k1")
			if string(got) != "v2" {
				t.Errorf("got %q after overwrite, want v2", got)
			}
		})
	}
}

func TestTTLExpiry(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.SetWithTTL(ctx, "short", []byte("x"), 50*time.Millisecond); err != nil {
				t.Fatalf("set with ttl: %v", err)
			}
			if _, err := s.Get(ctx, "short"); err != nil {
				t.Fatalf("get before expiry: %v", err)
			}

			time.Sleep(80 * time.Millisecond)
			if _, err := s.Get(ctx, "short"); err != ErrNotFound {
				t.Errorf("expected ErrNotFound after expiry, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.Get(ctx, "k"); err != ErrNotFound {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}

			// Deleting again is not an error
			if err := s.Delete(ctx, "k"); err != nil {
				t.Errorf("delete of missing key: %v", err)
			}
		})
	}
}

func TestKeysByPrefix(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, k := range []string{"task:1", "task:2", "agent:a"} {
				if err := s.Set(ctx, k, []byte("v")); err != nil {
					t.Fatalf("set %s: %v", k, err)
				}
			}

			keys, err := s.Keys(ctx, "task:")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			if len(keys) != 2 {
				t.Errorf("got %d task keys, want 2: %v", len(keys), keys)
			}
			for _, k := range keys {
				if k != "task:1" && k != "task:2" {
					t.Errorf("unexpected key %q", k)
				}
			}
		})
	}
}

func TestListOrdering(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Fresh entries append at the tail; FIFO pops from the head.
			for _, v := range []string{"a", "b", "c"} {
				if err := s.ListPushTail(ctx, "q", v); err != nil {
					t.Fatalf("push tail: %v", err)
				}
			}

			// A head push jumps the line.
			if err := s.ListPushHead(ctx, "q", "priority"); err != nil {
				t.Fatalf("push head: %v", err)
			}

			n, err := s.ListLen(ctx, "q")
			if err != nil {
				t.Fatalf("len: %v", err)
			}
			if n != 4 {
				t.Errorf("len = %d, want 4", n)
			}

			want := []string{"priority", "a", "b", "c"}
			all, err := s.ListRange(ctx, "q")
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(all) != len(want) {
				t.Fatalf("range returned %v, want %v", all, want)
			}
			for i := range want {
				if all[i] != want[i] {
					t.Errorf("range[%d] = %q, want %q", i, all[i], want[i])
				}
			}

			for _, w := range want {
				got, err := s.ListPopHead(ctx, "q")
				if err != nil {
					t.Fatalf("pop: %v", err)
				}
				if got != w {
					t.Errorf("popped %q, want %q", got, w)
				}
			}

			if _, err := s.ListPopHead(ctx, "q"); err != ErrEmptyList {
				t.Errorf("expected ErrEmptyList on drained list, got %v", err)
			}
		})
	}
}

func TestPopIsExclusive(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			const n = 50
			for i := 0; i < n; i++ {
				if err := s.ListPushTail(ctx, "busy", "id-"+string(rune('a'+i%26))+string(rune('0'+i/26))); err != nil {
					t.Fatalf("push: %v", err)
				}
			}

			results := make(chan string, n)
			done := make(chan struct{})
			for w := 0; w < 4; w++ {
				go func() {
					for {
						v, err := s.ListPopHead(ctx, "busy")
						if err != nil {
							done <- struct{}{}
							return
						}
						results <- v
					}
				}()
			}
			for w := 0; w < 4; w++ {
				<-done
			}
			close(results)

			seen := make(map[string]bool)
			count := 0
			for v := range results {
				if seen[v] {
					t.Errorf("entry %q popped twice", v)
				}
				seen[v] = true
				count++
			}
			if count != n {
				t.Errorf("popped %d entries, want %d", count, n)
			}
		})
	}
}
