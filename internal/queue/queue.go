// ABOUTME: Queue dispatcher owning per-agent-type task id queues and the dead-letter queue
// ABOUTME: Fresh tasks append at the tail; retries prepend at the head for prompt pickup

package queue

import (
	"context"
	"fmt"

	"github.com/2389/swarm-gateway/internal/store"
)

// ErrEmpty is returned by Pop when the queue holds no task ids.
var ErrEmpty = store.ErrEmptyList

// Dispatcher is the sole mutator of queue contents. Each agent type has one
// ordered queue of task ids; the two enqueue operations make the priority
// policy explicit instead of hiding it behind a single push:
//
//   - EnqueueNormal appends, so first attempts dispatch FIFO.
//   - EnqueueRetry prepends, so a retried task is the next one popped. This
//     biases the system toward prompt retry over fairness, and it changes
//     effective priority between first attempts and retries on purpose.
type Dispatcher struct {
	store store.Store
}

// NewDispatcher creates a dispatcher over the given store.
func NewDispatcher(s store.Store) *Dispatcher {
	return &Dispatcher{store: s}
}

func queueKey(agentType string) string {
	return store.QueueKeyPrefix + agentType
}

// EnqueueNormal appends a freshly created task id to its type's queue.
func (d *Dispatcher) EnqueueNormal(ctx context.Context, agentType, taskID string) error {
	if err := d.store.ListPushTail(ctx, queueKey(agentType), taskID); err != nil {
		return fmt.Errorf("enqueueing task %s: %w", taskID, err)
	}
	return nil
}

// EnqueueRetry prepends a retried task id so it is the next to be popped.
func (d *Dispatcher) EnqueueRetry(ctx context.Context, agentType, taskID string) error {
	if err := d.store.ListPushHead(ctx, queueKey(agentType), taskID); err != nil {
		return fmt.Errorf("re-enqueueing task %s: %w", taskID, err)
	}
	return nil
}

// Pop removes and returns the next task id for the given agent type.
// The underlying pop is atomic per entry, so two concurrent pollers never
// receive the same id. Returns ErrEmpty when nothing is queued.
func (d *Dispatcher) Pop(ctx context.Context, agentType string) (string, error) {
	return d.store.ListPopHead(ctx, queueKey(agentType))
}

// Len reports how many task ids are queued for the given agent type.
func (d *Dispatcher) Len(ctx context.Context, agentType string) (int, error) {
	return d.store.ListLen(ctx, queueKey(agentType))
}

// PushDeadLetter appends a task id to the dead-letter queue. Dead-lettered
// ids are never re-queued by the gateway.
func (d *Dispatcher) PushDeadLetter(ctx context.Context, taskID string) error {
	if err := d.store.ListPushTail(ctx, store.DeadLetterKey, taskID); err != nil {
		return fmt.Errorf("dead-lettering task %s: %w", taskID, err)
	}
	return nil
}

// DeadLetterIDs returns the full dead-letter id list without draining it.
func (d *Dispatcher) DeadLetterIDs(ctx context.Context) ([]string, error) {
	return d.store.ListRange(ctx, store.DeadLetterKey)
}
