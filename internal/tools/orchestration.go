// ABOUTME: The nine orchestration tools exposed to agents over MCP
// ABOUTME: Thin schema-guarded adapters over the orchestrator and scratch store

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2389/swarm-gateway/internal/agent"
	"github.com/2389/swarm-gateway/internal/orchestrator"
	"github.com/2389/swarm-gateway/internal/scratch"
	"github.com/2389/swarm-gateway/internal/task"
)

// OrchestrationTools builds the gateway's tool set over the orchestrator
// and scratch store.
func OrchestrationTools(orch *orchestrator.Orchestrator, shared *scratch.Store) []*Tool {
	h := &handlers{orch: orch, shared: shared}
	return []*Tool{
		{
			Name:        "create_task",
			Description: "Create a new task and queue it for an agent of the given type",
			InputSchema: `{"type":"object","properties":{"agent_type":{"type":"string","enum":["planning","implementation","testing","documentation"]},"task_description":{"type":"string"},"context":{"type":"object"},"dependencies":{"type":"array","items":{"type":"string"}},"max_retries":{"type":"integer","minimum":0},"timeout_seconds":{"type":"integer","minimum":1}},"required":["agent_type","task_description"]}`,
			Handler:     h.CreateTask,
		},
		{
			Name:        "get_task_status",
			Description: "Get the current state of a task",
			InputSchema: `{"type":"object","properties":{"task_id":{"type":"string"}},"required":["task_id"]}`,
			Handler:     h.GetTaskStatus,
		},
		{
			Name:        "poll_tasks",
			Description: "Pull queued tasks for the polling agent's type",
			InputSchema: `{"type":"object","properties":{"agent_id":{"type":"string"},"max_tasks":{"type":"integer","minimum":1}},"required":["agent_id"]}`,
			Handler:     h.PollTasks,
		},
		{
			Name:        "submit_result",
			Description: "Report the outcome of a task attempt",
			InputSchema: `{"type":"object","properties":{"task_id":{"type":"string"},"status":{"type":"string","enum":["completed","failed"]},"result":{},"error":{"type":"string"}},"required":["task_id","status"]}`,
			Handler:     h.SubmitResult,
		},
		{
			Name:        "list_agents",
			Description: "List registered agents, optionally filtered by status",
			InputSchema: `{"type":"object","properties":{"filter":{"type":"string","enum":["all","active","idle"]}}}`,
			Handler:     h.ListAgents,
		},
		{
			Name:        "register_agent",
			Description: "Register (or re-register) a worker agent",
			InputSchema: `{"type":"object","properties":{"agent_id":{"type":"string"},"agent_type":{"type":"string"},"capabilities":{"type":"array","items":{"type":"string"}}},"required":["agent_id","agent_type","capabilities"]}`,
			Handler:     h.RegisterAgent,
		},
		{
			Name:        "get_shared_state",
			Description: "Read a value from the shared scratch store",
			InputSchema: `{"type":"object","properties":{"key":{"type":"string"}},"required":["key"]}`,
			Handler:     h.GetSharedState,
		},
		{
			Name:        "set_shared_state",
			Description: "Write a value to the shared scratch store with a TTL",
			InputSchema: `{"type":"object","properties":{"key":{"type":"string"},"value":{},"ttl":{"type":"integer","minimum":1}},"required":["key","value"]}`,
			Handler:     h.SetSharedState,
		},
		{
			Name:        "get_dead_letter_tasks",
			Description: "List tasks that exhausted their retry budget",
			InputSchema: `{"type":"object","properties":{}}`,
			Handler:     h.GetDeadLetterTasks,
		},
	}
}

type handlers struct {
	orch   *orchestrator.Orchestrator
	shared *scratch.Store
}

type createTaskInput struct {
	AgentType       string          `json:"agent_type"`
	TaskDescription string          `json:"task_description"`
	Context         json.RawMessage `json:"context"`
	Dependencies    []string        `json:"dependencies"`
	MaxRetries      *int            `json:"max_retries"`
	TimeoutSeconds  *int            `json:"timeout_seconds"`
}

func (h *handlers) CreateTask(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in createTaskInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	t, err := h.orch.CreateTask(ctx, task.CreateParams{
		AgentType:      task.AgentType(in.AgentType),
		Description:    in.TaskDescription,
		Context:        in.Context,
		Dependencies:   in.Dependencies,
		MaxRetries:     in.MaxRetries,
		TimeoutSeconds: in.TimeoutSeconds,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

type getTaskStatusInput struct {
	TaskID string `json:"task_id"`
}

func (h *handlers) GetTaskStatus(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getTaskStatusInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	t, err := h.orch.GetTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

type pollTasksInput struct {
	AgentID  string `json:"agent_id"`
	MaxTasks int    `json:"max_tasks"`
}

func (h *handlers) PollTasks(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in pollTasksInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if in.MaxTasks == 0 {
		in.MaxTasks = 1
	}

	tasks, err := h.orch.Poll(ctx, in.AgentID, in.MaxTasks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tasks)
}

type submitResultInput struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func (h *handlers) SubmitResult(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in submitResultInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := h.orch.SubmitResult(ctx, in.TaskID, task.Status(in.Status), in.Result, in.Error); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"task_id":      in.TaskID,
		"acknowledged": true,
	})
}

type listAgentsInput struct {
	Filter string `json:"filter"`
}

func (h *handlers) ListAgents(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listAgentsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	filter := agent.ListFilter(in.Filter)
	if filter == "" {
		filter = agent.FilterAll
	}

	agents, err := h.orch.ListAgents(ctx, filter)
	if err != nil {
		return nil, err
	}
	return json.Marshal(agents)
}

type registerAgentInput struct {
	AgentID      string   `json:"agent_id"`
	AgentType    string   `json:"agent_type"`
	Capabilities []string `json:"capabilities"`
}

func (h *handlers) RegisterAgent(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in registerAgentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	a, err := h.orch.RegisterAgent(ctx, in.AgentID, in.AgentType, in.Capabilities)
	if err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

type sharedKeyInput struct {
	Key string `json:"key"`
}

func (h *handlers) GetSharedState(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in sharedKeyInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	value, err := h.shared.Get(ctx, in.Key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return json.RawMessage(`null`), nil
	}
	return value, nil
}

type setSharedStateInput struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	TTL   int             `json:"ttl"`
}

func (h *handlers) SetSharedState(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in setSharedStateInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	ttl := time.Duration(in.TTL) * time.Second
	if err := h.shared.Set(ctx, in.Key, in.Value, ttl); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"key":          in.Key,
		"acknowledged": true,
	})
}

func (h *handlers) GetDeadLetterTasks(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	tasks, err := h.orch.DeadLetterTasks(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tasks)
}
