// ABOUTME: Task record manager owning persistence of task records in the store
// ABOUTME: Sole writer of task status transitions; updates are whole-record writes

package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/swarm-gateway/internal/store"
)

// ErrNotFound indicates the requested task does not exist.
var ErrNotFound = errors.New("task not found")

// CreateParams are the caller-supplied fields for a new task.
type CreateParams struct {
	AgentType      AgentType
	Description    string
	Context        json.RawMessage
	Dependencies   []string
	MaxRetries     *int
	TimeoutSeconds *int
}

// Manager owns task record persistence. It is the only component that
// writes task records; the queue dispatcher only ever sees task ids.
type Manager struct {
	store  store.Store
	logger *slog.Logger
}

// NewManager creates a task record manager over the given store.
func NewManager(s store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  s,
		logger: logger.With("component", "task"),
	}
}

// Create builds a pending task record and persists it. The caller is
// responsible for handing the id to the queue dispatcher afterwards.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*Task, error) {
	now := time.Now().UTC()

	t := &Task{
		ID:             NewID(),
		AgentType:      p.AgentType,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		Description:    p.Description,
		Context:        p.Context,
		Dependencies:   p.Dependencies,
		RetryCount:     0,
		MaxRetries:     DefaultMaxRetries,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	if p.MaxRetries != nil {
		t.MaxRetries = *p.MaxRetries
	}
	if p.TimeoutSeconds != nil {
		t.TimeoutSeconds = *p.TimeoutSeconds
	}

	if err := m.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("persisting task %s: %w", t.ID, err)
	}
	return t, nil
}

// Get loads a task record by id. Returns ErrNotFound if the record is
// missing, including for dangling queue references.
func (m *Manager) Get(ctx context.Context, id string) (*Task, error) {
	data, err := m.store.Get(ctx, store.TaskKeyPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading task %s: %w", id, err)
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", id, err)
	}
	return &t, nil
}

// Update writes the full task record. Concurrent updates to the same id
// are last-write-wins; there is no compare-and-swap. Callers race with the
// timeout monitor by design and must tolerate stale reads.
func (m *Manager) Update(ctx context.Context, t *Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding task %s: %w", t.ID, err)
	}
	if err := m.store.Set(ctx, store.TaskKeyPrefix+t.ID, data); err != nil {
		return fmt.Errorf("storing task %s: %w", t.ID, err)
	}
	return nil
}

// All enumerates every task record. Records that fail to load or decode
// are skipped with a warning rather than aborting the enumeration; the
// timeout monitor depends on that.
func (m *Manager) All(ctx context.Context) ([]*Task, error) {
	keys, err := m.store.Keys(ctx, store.TaskKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scanning task keys: %w", err)
	}

	tasks := make([]*Task, 0, len(keys))
	for _, key := range keys {
		data, err := m.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			m.logger.Warn("skipping unreadable task record", "key", key, "error", err)
			continue
		}
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			m.logger.Warn("skipping undecodable task record", "key", key, "error", err)
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}
