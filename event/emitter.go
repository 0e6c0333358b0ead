package event

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// RunEmitter receives run lifecycle notifications from the bus.
// Satisfied by hook.Registry; defined here so the bus does not depend
// on the hook package.
type RunEmitter interface {
	EmitRunStarted(ctx context.Context, run *workflow.Run)
	EmitRunCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration)
	EmitRunRetrying(ctx context.Context, run *workflow.Run, delay time.Duration)
	EmitRunFailed(ctx context.Context, run *workflow.Run, err error)
	EmitRunDeadLettered(ctx context.Context, run *workflow.Run, err error)
}

type noopEmitter struct{}

func (noopEmitter) EmitRunStarted(context.Context, *workflow.Run) {}

func (noopEmitter) EmitRunCompleted(context.Context, *workflow.Run, time.Duration) {}

func (noopEmitter) EmitRunRetrying(context.Context, *workflow.Run, time.Duration) {}

func (noopEmitter) EmitRunFailed(context.Context, *workflow.Run, error) {}

func (noopEmitter) EmitRunDeadLettered(context.Context, *workflow.Run, error) {}
