package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
)

// Runner executes individual run attempts. The retry loop around attempts
// lives in the event bus; the Runner owns run persistence and handler
// invocation.
type Runner struct {
	registry *Registry
	store    Store
	emitter  StepEmitter
	logger   *slog.Logger
}

// NewRunner creates a workflow runner.
func NewRunner(registry *Registry, store Store, emitter StepEmitter, logger *slog.Logger) *Runner {
	return &Runner{
		registry: registry,
		store:    store,
		emitter:  emitter,
		logger:   logger,
	}
}

// Registry returns the workflow registry.
func (r *Runner) Registry() *Registry { return r.registry }

// Store returns the workflow store.
func (r *Runner) Store() Store { return r.store }

// CreateRun persists a fresh run (attempt 1, running) for the given
// handler and triggering event snapshot.
func (r *Runner) CreateRun(ctx context.Context, handler string, eventID id.ID, eventName string, input []byte) (*Run, error) {
	run := &Run{
		Entity:    fluxdesk.NewEntity(),
		ID:        id.NewRunID(),
		Handler:   handler,
		EventID:   eventID,
		EventName: eventName,
		Input:     input,
		Attempt:   1,
		State:     RunStateRunning,
		StartedAt: time.Now().UTC(),
	}

	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run for workflow %q: %w", handler, err)
	}
	return run, nil
}

// ExecuteAttempt runs the handler once against the run's step ledger.
// Steps that succeeded in earlier attempts are skipped by the ledger.
// The returned error carries the retriable/terminal classification for
// the bus to act on; run state is not modified here.
func (r *Runner) ExecuteAttempt(ctx context.Context, run *Run) error {
	handler, ok := r.registry.Get(run.Handler)
	if !ok {
		return Terminal(fmt.Errorf("no workflow registered for %q", run.Handler))
	}

	wf := NewWorkflowContext(ctx, run, r.store, r.emitter, r.logger)
	return handler(wf, run.Input)
}

// Complete marks the run as successfully finished and persists it.
func (r *Runner) Complete(ctx context.Context, run *Run) error {
	now := time.Now().UTC()
	run.State = RunStateCompleted
	run.Error = ""
	run.CompletedAt = &now

	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("update run %s as completed: %w", run.ID, err)
	}
	return nil
}

// Fail marks the run as permanently failed and persists it.
func (r *Runner) Fail(ctx context.Context, run *Run, runErr error) error {
	now := time.Now().UTC()
	run.State = RunStateFailed
	run.Error = runErr.Error()
	run.CompletedAt = &now

	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("update run %s as failed: %w", run.ID, err)
	}
	return nil
}

// RecordRetry bumps the attempt counter after a retriable failure and
// persists the run so the attempt count survives a process crash.
func (r *Runner) RecordRetry(ctx context.Context, run *Run, attemptErr error) error {
	run.Attempt++
	run.Error = attemptErr.Error()

	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("update run %s for retry: %w", run.ID, err)
	}
	return nil
}

// ResumeAll finds runs left in the running state (crash recovery) and
// re-executes each; steps with succeeded ledger entries are skipped.
// Errors on individual runs are logged, not propagated — one stuck run
// must not block the rest of recovery.
func (r *Runner) ResumeAll(ctx context.Context, resume func(ctx context.Context, run *Run)) error {
	runs, err := r.store.ListRuns(ctx, ListOpts{State: RunStateRunning})
	if err != nil {
		return fmt.Errorf("list running workflow runs: %w", err)
	}

	for _, run := range runs {
		r.logger.Info("resuming workflow run",
			slog.String("run_id", run.ID.String()),
			slog.String("handler", run.Handler),
			slog.Int("attempt", run.Attempt),
		)
		resume(ctx, run)
	}

	return nil
}
