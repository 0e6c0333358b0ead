// Package hook provides lifecycle observation for workflow runs and
// steps. Hooks are registered on a Registry that fans events out to all
// of them; the registry satisfies the emitter interfaces expected by the
// workflow and event packages.
package hook

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Hook receives workflow lifecycle notifications. Implementations must
// not block: hooks run inline on the goroutine driving the run.
type Hook interface {
	RunStarted(ctx context.Context, run *workflow.Run)
	RunCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration)
	RunRetrying(ctx context.Context, run *workflow.Run, delay time.Duration)
	RunFailed(ctx context.Context, run *workflow.Run, err error)
	RunDeadLettered(ctx context.Context, run *workflow.Run, err error)
	StepCompleted(ctx context.Context, run *workflow.Run, stepName string, elapsed time.Duration)
	StepFailed(ctx context.Context, run *workflow.Run, stepName string, err error)
}

// BaseHook is a no-op Hook for embedding, so implementations only
// override the notifications they care about.
type BaseHook struct{}

func (BaseHook) RunStarted(context.Context, *workflow.Run) {}

func (BaseHook) RunCompleted(context.Context, *workflow.Run, time.Duration) {}

func (BaseHook) RunRetrying(context.Context, *workflow.Run, time.Duration) {}

func (BaseHook) RunFailed(context.Context, *workflow.Run, error) {}

func (BaseHook) RunDeadLettered(context.Context, *workflow.Run, error) {}

func (BaseHook) StepCompleted(context.Context, *workflow.Run, string, time.Duration) {}

func (BaseHook) StepFailed(context.Context, *workflow.Run, string, error) {}
