package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// SlogHook logs workflow lifecycle events through a structured logger.
type SlogHook struct {
	BaseHook
	logger *slog.Logger
}

// NewSlogHook creates a hook that logs lifecycle events.
func NewSlogHook(logger *slog.Logger) *SlogHook {
	return &SlogHook{logger: logger}
}

func (h *SlogHook) runAttrs(run *workflow.Run) []any {
	return []any{
		slog.String("run_id", run.ID.String()),
		slog.String("handler", run.Handler),
		slog.String("event", run.EventName),
		slog.Int("attempt", run.Attempt),
	}
}

func (h *SlogHook) RunStarted(ctx context.Context, run *workflow.Run) {
	h.logger.Info("workflow run started", h.runAttrs(run)...)
}

func (h *SlogHook) RunCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration) {
	h.logger.Info("workflow run completed",
		append(h.runAttrs(run), slog.Duration("elapsed", elapsed))...)
}

func (h *SlogHook) RunRetrying(ctx context.Context, run *workflow.Run, delay time.Duration) {
	h.logger.Warn("workflow run retrying",
		append(h.runAttrs(run), slog.Duration("delay", delay), slog.String("error", run.Error))...)
}

func (h *SlogHook) RunFailed(ctx context.Context, run *workflow.Run, err error) {
	h.logger.Error("workflow run failed",
		append(h.runAttrs(run), slog.String("error", err.Error()))...)
}

func (h *SlogHook) RunDeadLettered(ctx context.Context, run *workflow.Run, err error) {
	h.logger.Error("workflow run dead-lettered",
		append(h.runAttrs(run), slog.String("error", err.Error()))...)
}

func (h *SlogHook) StepFailed(ctx context.Context, run *workflow.Run, stepName string, err error) {
	h.logger.Warn("workflow step failed",
		append(h.runAttrs(run), slog.String("step", stepName), slog.String("error", err.Error()))...)
}
