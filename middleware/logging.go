package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Logging logs the start and outcome of each run attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, run *workflow.Run) error {
			attrs := []any{
				slog.String("run_id", run.ID.String()),
				slog.String("handler", run.Handler),
				slog.String("event", run.EventName),
				slog.Int("attempt", run.Attempt),
			}

			logger.Debug("workflow attempt starting", attrs...)
			start := time.Now()

			err := next(ctx, run)

			attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.Warn("workflow attempt failed", attrs...)
				return err
			}

			logger.Info("workflow attempt completed", attrs...)
			return nil
		}
	}
}
