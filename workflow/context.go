package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxdesk/fluxdesk/id"
)

// StepEmitter is called by the Workflow to emit step lifecycle events.
// The interface is defined here and satisfied by hook.Registry to keep
// this package free of a hook dependency.
type StepEmitter interface {
	EmitStepCompleted(ctx context.Context, run *Run, stepName string, elapsed time.Duration)
	EmitStepFailed(ctx context.Context, run *Run, stepName string, err error)
}

// Workflow is the execution context passed to workflow handler functions.
// It provides durable step execution against the run's step ledger. Steps
// are strictly sequential: a handler issues them one at a time and each
// Step call blocks until the step finishes.
type Workflow struct {
	ctx     context.Context
	run     *Run
	store   Store
	emitter StepEmitter
	logger  *slog.Logger
}

// NewWorkflowContext creates a new Workflow execution context.
// This is called by the workflow runner, not by handlers.
func NewWorkflowContext(
	ctx context.Context,
	run *Run,
	store Store,
	emitter StepEmitter,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		ctx:     ctx,
		run:     run,
		store:   store,
		emitter: emitter,
		logger:  logger,
	}
}

// Context returns the underlying context.Context.
func (w *Workflow) Context() context.Context { return w.ctx }

// RunID returns the workflow run ID.
func (w *Workflow) RunID() id.ID { return w.run.ID }

// Run returns the workflow run.
func (w *Workflow) Run() *Run { return w.run }
