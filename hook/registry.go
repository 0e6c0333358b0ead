package hook

import (
	"context"
	"sync"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Registry fans lifecycle notifications out to registered hooks. It
// implements workflow.StepEmitter and event.RunEmitter. Registration is
// expected at startup; emission happens on hot paths and takes a read
// lock only.
type Registry struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook to the registry.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

func (r *Registry) snapshot() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}

// EmitRunStarted notifies hooks that a run attempt sequence has begun.
func (r *Registry) EmitRunStarted(ctx context.Context, run *workflow.Run) {
	for _, h := range r.snapshot() {
		h.RunStarted(ctx, run)
	}
}

// EmitRunCompleted notifies hooks of a successful run.
func (r *Registry) EmitRunCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration) {
	for _, h := range r.snapshot() {
		h.RunCompleted(ctx, run, elapsed)
	}
}

// EmitRunRetrying notifies hooks that a run will be retried after delay.
func (r *Registry) EmitRunRetrying(ctx context.Context, run *workflow.Run, delay time.Duration) {
	for _, h := range r.snapshot() {
		h.RunRetrying(ctx, run, delay)
	}
}

// EmitRunFailed notifies hooks of a permanently failed run.
func (r *Registry) EmitRunFailed(ctx context.Context, run *workflow.Run, err error) {
	for _, h := range r.snapshot() {
		h.RunFailed(ctx, run, err)
	}
}

// EmitRunDeadLettered notifies hooks that a failed run was pushed to the DLQ.
func (r *Registry) EmitRunDeadLettered(ctx context.Context, run *workflow.Run, err error) {
	for _, h := range r.snapshot() {
		h.RunDeadLettered(ctx, run, err)
	}
}

// EmitStepCompleted notifies hooks of a completed step.
func (r *Registry) EmitStepCompleted(ctx context.Context, run *workflow.Run, stepName string, elapsed time.Duration) {
	for _, h := range r.snapshot() {
		h.StepCompleted(ctx, run, stepName, elapsed)
	}
}

// EmitStepFailed notifies hooks of a failed step.
func (r *Registry) EmitStepFailed(ctx context.Context, run *workflow.Run, stepName string, err error) {
	for _, h := range r.snapshot() {
		h.StepFailed(ctx, run, stepName, err)
	}
}
