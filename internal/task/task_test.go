// ABOUTME: Tests for task record creation, defaults, and persistence.
// ABOUTME: Uses the in-memory store backend.

package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/2389/swarm-gateway/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return NewManager(s, slog.Default())
}

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !strings.HasPrefix(id, "task-") {
		t.Errorf("id %q missing task- prefix", id)
	}
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("id %q should have 3 segments", id)
	}
	if len(parts[2]) != 8 {
		t.Errorf("random suffix %q should be 8 chars", parts[2])
	}

	if NewID() == id {
		t.Error("consecutive ids should differ")
	}
}

func TestCreateDefaults(t *testing.T) {
	m := newTestManager(t)

	created, err := m.Create(context.Background(), CreateParams{
		AgentType:   AgentTypeTesting,
		Description: "run suite",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Status != StatusPending {
		t.Errorf("status = %s, want pending", created.Status)
	}
	if created.RetryCount != 0 {
		t.Errorf("retry_count = %d, want 0", created.RetryCount)
	}
	if created.MaxRetries != DefaultMaxRetries {
		t.Errorf("max_retries = %d, want %d", created.MaxRetries, DefaultMaxRetries)
	}
	if created.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("timeout_seconds = %d, want %d", created.TimeoutSeconds, DefaultTimeoutSeconds)
	}
	if created.AssignedAgentID != "" {
		t.Errorf("assigned_agent_id = %q, want empty", created.AssignedAgentID)
	}
	if created.StartedAt != nil {
		t.Error("started_at should be nil before first poll")
	}
	if created.Dependencies == nil {
		t.Error("dependencies should serialize as an empty list, not null")
	}
}

func TestCreateOverrides(t *testing.T) {
	m := newTestManager(t)

	maxRetries := 5
	timeout := 30
	created, err := m.Create(context.Background(), CreateParams{
		AgentType:      AgentTypePlanning,
		Description:    "plan the sprint",
		Context:        json.RawMessage(`{"sprint":12}`),
		Dependencies:   []string{"task-1-abc"},
		MaxRetries:     &maxRetries,
		TimeoutSeconds: &timeout,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.MaxRetries != 5 {
		t.Errorf("max_retries = %d, want 5", created.MaxRetries)
	}
	if created.TimeoutSeconds != 30 {
		t.Errorf("timeout_seconds = %d, want 30", created.TimeoutSeconds)
	}
	if len(created.Dependencies) != 1 || created.Dependencies[0] != "task-1-abc" {
		t.Errorf("dependencies = %v", created.Dependencies)
	}
}

func TestGetRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, CreateParams{
		AgentType:   AgentTypeImplementation,
		Description: "build the widget",
		Context:     json.RawMessage(`{"widget":"blue"}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.ID != created.ID {
		t.Errorf("id = %s, want %s", loaded.ID, created.ID)
	}
	if loaded.Description != "build the widget" {
		t.Errorf("description = %q", loaded.Description)
	}
	if string(loaded.Context) != `{"widget":"blue"}` {
		t.Errorf("context = %s", loaded.Context)
	}
}

func TestGetNotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get(context.Background(), "task-0-missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAllSkipsGarbage(t *testing.T) {
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	m := NewManager(s, slog.Default())
	ctx := context.Background()

	if _, err := m.Create(ctx, CreateParams{AgentType: AgentTypeTesting, Description: "ok"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// A corrupt record must not break enumeration.
	if err := s.Set(ctx, store.TaskKeyPrefix+"task-0-garbage", []byte("not json")); err != nil {
		t.Fatalf("set: %v", err)
	}

	tasks, err := m.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("got %d tasks, want 1", len(tasks))
	}
}

func TestValidAgentType(t *testing.T) {
	for _, at := range []AgentType{AgentTypePlanning, AgentTypeImplementation, AgentTypeTesting, AgentTypeDocumentation} {
		if !ValidAgentType(at) {
			t.Errorf("%s should be valid", at)
		}
	}
	if ValidAgentType("juggling") {
		t.Error("unknown agent type should be invalid")
	}
}
