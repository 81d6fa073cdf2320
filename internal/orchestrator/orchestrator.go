// ABOUTME: Orchestration service composing task records, agent registry, and queues
// ABOUTME: Implements create/poll/submit with the retry and dead-letter policy

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/swarm-gateway/internal/agent"
	"github.com/2389/swarm-gateway/internal/metrics"
	"github.com/2389/swarm-gateway/internal/queue"
	"github.com/2389/swarm-gateway/internal/task"
)

// ErrInvalidResultStatus indicates a submitted result status was neither
// completed nor failed.
var ErrInvalidResultStatus = errors.New("result status must be completed or failed")

// Orchestrator coordinates the task record manager, agent registry, and
// queue dispatcher. It owns the control flow of the system: create → queue
// → poll → work → submit, with retries re-queued at the head and exhausted
// tasks dead-lettered.
//
// Known race, kept on purpose: the queue pop is atomic, but the record
// writes that follow it are not. A poll racing a timeout sweep (or two
// result submissions for one task id) resolves last-write-wins on the full
// record. Fixing that would need versioned writes or per-task locks and
// would change observable retry counts, so it stays documented instead.
type Orchestrator struct {
	tasks   *task.Manager
	agents  *agent.Registry
	queues  *queue.Dispatcher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an orchestrator over the given components.
func New(tasks *task.Manager, agents *agent.Registry, queues *queue.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		tasks:   tasks,
		agents:  agents,
		queues:  queues,
		metrics: m,
		logger:  logger.With("component", "orchestrator"),
	}
}

// CreateTask persists a new pending task and queues its id for dispatch.
// Dependencies are stored verbatim; nothing blocks scheduling on them.
func (o *Orchestrator) CreateTask(ctx context.Context, p task.CreateParams) (*task.Task, error) {
	if !task.ValidAgentType(p.AgentType) {
		return nil, fmt.Errorf("unknown agent type %q", p.AgentType)
	}

	t, err := o.tasks.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := o.queues.EnqueueNormal(ctx, string(t.AgentType), t.ID); err != nil {
		return nil, err
	}

	o.metrics.TasksCreated.Inc()
	o.logger.Info("task created",
		"task_id", t.ID,
		"agent_type", t.AgentType,
		"max_retries", t.MaxRetries,
		"timeout_seconds", t.TimeoutSeconds,
	)
	return t, nil
}

// GetTask is a pure read of a task record.
func (o *Orchestrator) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return o.tasks.Get(ctx, id)
}

// RegisterAgent upserts an agent and refreshes the active-agent gauge.
func (o *Orchestrator) RegisterAgent(ctx context.Context, id, agentType string, capabilities []string) (*agent.Agent, error) {
	a, err := o.agents.Register(ctx, id, agentType, capabilities)
	if err != nil {
		return nil, err
	}
	o.refreshAgentGauge(ctx)
	return a, nil
}

// ListAgents enumerates registered agents matching the filter.
func (o *Orchestrator) ListAgents(ctx context.Context, filter agent.ListFilter) ([]*agent.Agent, error) {
	return o.agents.List(ctx, filter)
}

// Poll hands up to maxTasks queued tasks of the agent's type to the agent.
// Each returned task has been transitioned to in_progress and bound to the
// agent before this returns. Returns agent.ErrNotRegistered for unknown
// agent ids without touching any state.
func (o *Orchestrator) Poll(ctx context.Context, agentID string, maxTasks int) ([]*task.Task, error) {
	if maxTasks <= 0 {
		maxTasks = 1
	}

	a, err := o.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	bound := make([]*task.Task, 0, maxTasks)
	for i := 0; i < maxTasks; i++ {
		id, err := o.queues.Pop(ctx, a.AgentType)
		if errors.Is(err, queue.ErrEmpty) {
			break
		}
		if err != nil {
			return bound, err
		}

		t, err := o.tasks.Get(ctx, id)
		if errors.Is(err, task.ErrNotFound) {
			// Queues and records are stored independently; a dangling id is
			// skipped but still consumes an attempt to bound the loop.
			o.logger.Warn("queue entry without a task record", "task_id", id, "agent_type", a.AgentType)
			continue
		}
		if err != nil {
			return bound, err
		}

		now := time.Now().UTC()
		t.Status = task.StatusInProgress
		t.AssignedAgentID = agentID
		t.StartedAt = &now
		t.UpdatedAt = now
		if err := o.tasks.Update(ctx, t); err != nil {
			return bound, err
		}
		if err := o.agents.SetBusy(ctx, agentID, t.ID); err != nil {
			return bound, err
		}

		o.logger.Info("task assigned",
			"task_id", t.ID,
			"agent_id", agentID,
			"retry_count", t.RetryCount,
		)
		bound = append(bound, t)
	}
	return bound, nil
}

// SubmitResult records the outcome of a task attempt and applies the retry
// and dead-letter policy:
//
//   - completed: terminal, result stored, error cleared.
//   - failed with retries left: retry_count incremented, task returned to
//     pending and re-queued at the head of its type's queue.
//   - failed with retries exhausted: terminal failure, id appended to the
//     dead-letter queue.
//
// Whatever the branch, the agent that held the task is released back to
// idle — the worker is freed even when its task is not done.
func (o *Orchestrator) SubmitResult(ctx context.Context, taskID string, status task.Status, result json.RawMessage, errMsg string) error {
	t, err := o.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}

	holdingAgent := t.AssignedAgentID
	now := time.Now().UTC()

	switch status {
	case task.StatusCompleted:
		if t.StartedAt != nil {
			o.metrics.TaskDuration.Observe(now.Sub(*t.StartedAt).Seconds())
		}
		t.Status = task.StatusCompleted
		t.Result = result
		t.Error = ""
		t.UpdatedAt = now
		if err := o.tasks.Update(ctx, t); err != nil {
			return err
		}
		o.metrics.TasksCompleted.Inc()
		o.logger.Info("task completed", "task_id", t.ID, "agent_id", holdingAgent)

	case task.StatusFailed:
		o.metrics.TasksFailed.Inc()
		if t.RetryCount < t.MaxRetries {
			t.RetryCount++
			t.Status = task.StatusPending
			t.AssignedAgentID = ""
			t.StartedAt = nil
			t.Error = errMsg
			if t.Error == "" {
				t.Error = "task failed, retrying"
			}
			t.UpdatedAt = now
			if err := o.tasks.Update(ctx, t); err != nil {
				return err
			}
			if err := o.queues.EnqueueRetry(ctx, string(t.AgentType), t.ID); err != nil {
				return err
			}
			o.metrics.TasksRetried.Inc()
			o.logger.Info("task failed, retrying",
				"task_id", t.ID,
				"retry_count", t.RetryCount,
				"max_retries", t.MaxRetries,
				"error", t.Error,
			)
		} else {
			t.Status = task.StatusFailed
			t.Result = nil
			t.Error = errMsg
			if t.Error == "" {
				t.Error = "task failed after max retries"
			}
			t.UpdatedAt = now
			if err := o.tasks.Update(ctx, t); err != nil {
				return err
			}
			if err := o.queues.PushDeadLetter(ctx, t.ID); err != nil {
				return err
			}
			o.metrics.TasksDeadLetter.Inc()
			o.logger.Warn("task dead-lettered",
				"task_id", t.ID,
				"retry_count", t.RetryCount,
				"error", t.Error,
			)
		}

	default:
		return ErrInvalidResultStatus
	}

	// Release the worker unconditionally. SetIdle tolerates agents whose
	// records have gone away.
	if holdingAgent != "" {
		if err := o.agents.SetIdle(ctx, holdingAgent); err != nil {
			o.logger.Warn("failed to release agent", "agent_id", holdingAgent, "error", err)
		}
	}
	return nil
}

// DeadLetterTasks resolves the dead-letter queue to full task records.
// Ids without a backing record are skipped. The queue is not drained.
func (o *Orchestrator) DeadLetterTasks(ctx context.Context) ([]*task.Task, error) {
	ids, err := o.queues.DeadLetterIDs(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := o.tasks.Get(ctx, id)
		if errors.Is(err, task.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (o *Orchestrator) refreshAgentGauge(ctx context.Context) {
	active, err := o.agents.List(ctx, agent.FilterActive)
	if err != nil {
		o.logger.Warn("failed to refresh agent gauge", "error", err)
		return
	}
	o.metrics.ActiveAgents.Set(float64(len(active)))
}
