package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ExecutionRegistry tracks in-flight executions so they can be cancelled.
// It holds only the cancellation handle, never the execution's data. All
// access is synchronized: runs register and deregister themselves from
// independent goroutines, and registration happens-before any Cancel
// lookup can observe it.
type ExecutionRegistry struct {
	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// NewExecutionRegistry creates an empty registry.
func NewExecutionRegistry() *ExecutionRegistry {
	return &ExecutionRegistry{
		running: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Register records the cancellation handle for a starting execution.
func (r *ExecutionRegistry) Register(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[id] = cancel
}

// Deregister removes a finished execution. Safe to call for ids that were
// never registered.
func (r *ExecutionRegistry) Deregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, id)
}

// Cancel signals cooperative cancellation to a running execution. Returns
// false, with no side effect, when the id is not currently running.
func (r *ExecutionRegistry) Cancel(id uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.running[id]
	r.mu.Unlock()

	if !ok {
		return false
	}

	cancel()
	return true
}

// Count returns the number of currently running executions.
func (r *ExecutionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}
