// ABOUTME: Timeout monitor sweeping in-progress tasks past their deadline
// ABOUTME: Overrun tasks go through the same failure path as a submitted result

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/swarm-gateway/internal/task"
)

// DefaultSweepInterval is how often the monitor scans task records.
const DefaultSweepInterval = 60 * time.Second

// Monitor periodically scans every task record and forces tasks stuck
// in_progress past their timeout through the failure path, so they retry
// or dead-letter under the same policy as an explicit failed result. The
// sweep is cooperative: it never interrupts in-flight external work, it
// only reacts to records already marked in_progress.
//
// The scan is a full enumeration each tick, which is fine at moderate task
// volumes. The monitor is owned by the gateway lifecycle: started on boot,
// stopped on shutdown.
type Monitor struct {
	orch     *Orchestrator
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool
}

// NewMonitor creates a timeout monitor. A non-positive interval falls back
// to DefaultSweepInterval.
func NewMonitor(o *Orchestrator, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Monitor{
		orch:     o,
		interval: interval,
		logger:   logger.With("component", "monitor"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop (or cancel ctx) to end it.
func (m *Monitor) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.run(ctx)
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish.
// Safe to call more than once, and a no-op if the loop never started.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	if m.started.Load() {
		<-m.done
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("timeout monitor started", "interval", m.interval)
	for {
		select {
		case <-ticker.C:
			m.Sweep(ctx)
		case <-ctx.Done():
			m.logger.Info("timeout monitor stopped", "reason", "context canceled")
			return
		case <-m.stop:
			m.logger.Info("timeout monitor stopped")
			return
		}
	}
}

// Sweep runs one pass over all task records. An error on one task is
// logged and the remaining tasks are still examined; only a failure to
// enumerate records at all aborts the pass.
func (m *Monitor) Sweep(ctx context.Context) {
	tasks, err := m.orch.tasks.All(ctx)
	if err != nil {
		m.logger.Error("timeout sweep failed to enumerate tasks", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, t := range tasks {
		if t.Status != task.StatusInProgress || t.StartedAt == nil {
			continue
		}
		elapsed := now.Sub(*t.StartedAt)
		if elapsed <= time.Duration(t.TimeoutSeconds)*time.Second {
			continue
		}

		m.logger.Warn("task timed out",
			"task_id", t.ID,
			"agent_id", t.AssignedAgentID,
			"elapsed_seconds", int(elapsed.Seconds()),
			"timeout_seconds", t.TimeoutSeconds,
		)
		m.orch.metrics.TasksTimedOut.Inc()

		errMsg := fmt.Sprintf("task timed out after %ds", t.TimeoutSeconds)
		if err := m.orch.SubmitResult(ctx, t.ID, task.StatusFailed, nil, errMsg); err != nil {
			m.logger.Error("failed to time out task", "task_id", t.ID, "error", err)
		}
	}
}
