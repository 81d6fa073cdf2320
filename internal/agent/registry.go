// ABOUTME: Agent registry managing worker registration, heartbeat, and status
// ABOUTME: Sole writer of agent records; busy/idle transitions happen here only

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/swarm-gateway/internal/store"
)

// ErrNotRegistered indicates an operation referenced an agent id that was
// never registered (or whose record has gone away).
var ErrNotRegistered = errors.New("agent not registered")

// Status is an agent's operational state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// ListFilter selects which agents List returns.
type ListFilter string

const (
	FilterAll    ListFilter = "all"
	FilterActive ListFilter = "active" // any status except offline
	FilterIdle   ListFilter = "idle"
)

// Agent is a registered worker. AgentType is an open string used for queue
// routing; it is not restricted to the task agent-type enumeration. An
// agent is busy iff CurrentTaskID is set.
type Agent struct {
	ID            string    `json:"agent_id"`
	AgentType     string    `json:"agent_type"`
	Status        Status    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Capabilities  []string  `json:"capabilities"`
	CurrentTaskID string    `json:"current_task_id"`
}

// Registry owns agent records in the store. Registration is an upsert:
// re-registering an id overwrites its record and resets it to idle. Agents
// are never deleted here; one that stops polling simply goes stale.
type Registry struct {
	store  store.Store
	logger *slog.Logger
}

// NewRegistry creates an agent registry over the given store.
func NewRegistry(s store.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:  s,
		logger: logger.With("component", "agent"),
	}
}

// Register upserts an agent record, resetting it to idle with a fresh
// heartbeat and no current task.
func (r *Registry) Register(ctx context.Context, id, agentType string, capabilities []string) (*Agent, error) {
	a := &Agent{
		ID:            id,
		AgentType:     agentType,
		Status:        StatusIdle,
		LastHeartbeat: time.Now().UTC(),
		Capabilities:  capabilities,
	}
	if a.Capabilities == nil {
		a.Capabilities = []string{}
	}

	if err := r.save(ctx, a); err != nil {
		return nil, err
	}
	r.logger.Info("agent registered",
		"agent_id", id,
		"agent_type", agentType,
		"capabilities", capabilities,
	)
	return a, nil
}

// Get loads an agent record. Returns ErrNotRegistered for unknown ids.
func (r *Registry) Get(ctx context.Context, id string) (*Agent, error) {
	data, err := r.store.Get(ctx, store.AgentKeyPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("loading agent %s: %w", id, err)
	}

	var a Agent
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding agent %s: %w", id, err)
	}
	return &a, nil
}

// List enumerates registered agents matching the filter. This is an O(n)
// scan; the registry is expected to stay small (tens to low hundreds).
func (r *Registry) List(ctx context.Context, filter ListFilter) ([]*Agent, error) {
	keys, err := r.store.Keys(ctx, store.AgentKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scanning agent keys: %w", err)
	}

	agents := make([]*Agent, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		var a Agent
		if err := json.Unmarshal(data, &a); err != nil {
			r.logger.Warn("skipping undecodable agent record", "key", key, "error", err)
			continue
		}

		switch filter {
		case FilterActive:
			if a.Status == StatusOffline {
				continue
			}
		case FilterIdle:
			if a.Status != StatusIdle {
				continue
			}
		}
		agents = append(agents, &a)
	}
	return agents, nil
}

// SetBusy marks the agent busy on the given task and refreshes its
// heartbeat. Returns ErrNotRegistered for unknown ids.
func (r *Registry) SetBusy(ctx context.Context, agentID, taskID string) error {
	a, err := r.Get(ctx, agentID)
	if err != nil {
		return err
	}
	a.Status = StatusBusy
	a.CurrentTaskID = taskID
	a.LastHeartbeat = time.Now().UTC()
	return r.save(ctx, a)
}

// SetIdle clears the agent's current task and marks it idle. Dangling
// references are benign: an unknown id is a no-op, not an error, because
// a task can outlive the agent record that once held it.
func (r *Registry) SetIdle(ctx context.Context, agentID string) error {
	a, err := r.Get(ctx, agentID)
	if errors.Is(err, ErrNotRegistered) {
		return nil
	}
	if err != nil {
		return err
	}
	a.Status = StatusIdle
	a.CurrentTaskID = ""
	a.LastHeartbeat = time.Now().UTC()
	return r.save(ctx, a)
}

func (r *Registry) save(ctx context.Context, a *Agent) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding agent %s: %w", a.ID, err)
	}
	if err := r.store.Set(ctx, store.AgentKeyPrefix+a.ID, data); err != nil {
		return fmt.Errorf("storing agent %s: %w", a.ID, err)
	}
	return nil
}
