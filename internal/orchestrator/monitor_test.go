// ABOUTME: Tests for the timeout monitor's forced-failure sweep.

package orchestrator

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/swarm-gateway/internal/agent"
	"github.com/2389/swarm-gateway/internal/task"
)

// bindOverdueTask creates a task, polls it onto the agent, and backdates
// started_at so the next sweep sees it past its deadline.
func bindOverdueTask(t *testing.T, env *testEnv, timeoutSeconds int) *task.Task {
	t.Helper()
	ctx := context.Background()

	_, err := env.orch.CreateTask(ctx, task.CreateParams{
		AgentType:      task.AgentTypeTesting,
		Description:    "slow",
		TimeoutSeconds: &timeoutSeconds,
	})
	require.NoError(t, err)
	_, err = env.orch.RegisterAgent(ctx, "a1", "testing", nil)
	require.NoError(t, err)
	polled, err := env.orch.Poll(ctx, "a1", 1)
	require.NoError(t, err)
	require.Len(t, polled, 1)

	bound := polled[0]
	overdue := time.Now().UTC().Add(-time.Duration(timeoutSeconds+1) * time.Second)
	bound.StartedAt = &overdue
	require.NoError(t, env.orch.tasks.Update(ctx, bound))
	return bound
}

func TestSweepForcesOverdueTaskToFailurePath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bound := bindOverdueTask(t, env, 5)

	m := NewMonitor(env.orch, time.Minute, slog.Default())
	m.Sweep(ctx)

	got, err := env.orch.GetTask(ctx, bound.ID)
	require.NoError(t, err)
	// First timeout lands inside the retry budget, so the task is pending again.
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.Error, "timed out after 5s")

	// The holding agent was released.
	a, err := env.orch.agents.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, agent.StatusIdle, a.Status)

	// And the task is queued for prompt retry.
	ids, err := env.store.ListRange(ctx, "queue:testing")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, bound.ID, ids[0])
}

func TestSweepIgnoresHealthyTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, task.CreateParams{
		AgentType:   task.AgentTypeTesting,
		Description: "fresh",
	})
	require.NoError(t, err)
	_, err = env.orch.RegisterAgent(ctx, "a1", "testing", nil)
	require.NoError(t, err)
	polled, err := env.orch.Poll(ctx, "a1", 1)
	require.NoError(t, err)
	require.Len(t, polled, 1)

	m := NewMonitor(env.orch, time.Minute, slog.Default())
	m.Sweep(ctx)

	got, err := env.orch.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)
}

func TestSweepIgnoresPendingTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, task.CreateParams{
		AgentType:   task.AgentTypeTesting,
		Description: "queued",
	})
	require.NoError(t, err)

	m := NewMonitor(env.orch, time.Minute, slog.Default())
	m.Sweep(ctx)

	got, err := env.orch.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, 0, got.RetryCount)
}

func TestTimeoutExhaustionDeadLetters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := NewMonitor(env.orch, time.Minute, slog.Default())

	maxRetries := 0
	created, err := env.orch.CreateTask(ctx, task.CreateParams{
		AgentType:   task.AgentTypeTesting,
		Description: "doomed",
		MaxRetries:  &maxRetries,
	})
	require.NoError(t, err)
	_, err = env.orch.RegisterAgent(ctx, "a1", "testing", nil)
	require.NoError(t, err)
	polled, err := env.orch.Poll(ctx, "a1", 1)
	require.NoError(t, err)
	require.Len(t, polled, 1)

	overdue := time.Now().UTC().Add(-301 * time.Second)
	polled[0].StartedAt = &overdue
	require.NoError(t, env.orch.tasks.Update(ctx, polled[0]))

	m.Sweep(ctx)

	got, err := env.orch.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)

	dead, err := env.orch.DeadLetterTasks(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, created.ID, dead[0].ID)
}

func TestMonitorStartStop(t *testing.T) {
	env := newTestEnv(t)

	m := NewMonitor(env.orch, 10*time.Millisecond, slog.Default())
	m.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	m.Stop() // must return promptly and not panic
}
