// ABOUTME: Task record type, status and agent-type enumerations, and id generation
// ABOUTME: JSON tags define the wire shape shared with agents and dashboards

package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AgentType classifies which worker pool a task is routed to.
type AgentType string

const (
	AgentTypePlanning       AgentType = "planning"
	AgentTypeImplementation AgentType = "implementation"
	AgentTypeTesting        AgentType = "testing"
	AgentTypeDocumentation  AgentType = "documentation"
)

// ValidAgentType reports whether t is one of the known agent types.
func ValidAgentType(t AgentType) bool {
	switch t {
	case AgentTypePlanning, AgentTypeImplementation, AgentTypeTesting, AgentTypeDocumentation:
		return true
	}
	return false
}

// Defaults applied when a create request omits the fields.
const (
	DefaultMaxRetries     = 3
	DefaultTimeoutSeconds = 300
)

// Task is a unit of work dispatched to an agent. Context and Result are
// opaque to the gateway: the core stores and returns them but imposes no
// schema. Dependencies are stored but not enforced; ordering among
// dependent tasks is the callers' concern.
type Task struct {
	ID              string          `json:"task_id"`
	AgentType       AgentType       `json:"agent_type"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	AssignedAgentID string          `json:"assigned_agent_id"`
	Description     string          `json:"task_description"`
	Context         json.RawMessage `json:"context,omitempty"`
	Dependencies    []string        `json:"dependencies"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
	RetryCount      int             `json:"retry_count"`
	MaxRetries      int             `json:"max_retries"`
	StartedAt       *time.Time      `json:"started_at"`
	TimeoutSeconds  int             `json:"timeout_seconds"`
}

// NewID generates a task id that sorts roughly by creation time while
// staying collision resistant: task-<unix millis>-<uuid fragment>.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("task-%d-%s", time.Now().UnixMilli(), suffix)
}
