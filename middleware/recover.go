package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Recover converts a panicking workflow handler into an attempt error so
// a bad handler cannot take down the bus goroutine driving it.
func Recover(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, run *workflow.Run) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("workflow handler panicked",
						slog.String("run_id", run.ID.String()),
						slog.String("handler", run.Handler),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("workflow %q panicked: %v", run.Handler, r)
				}
			}()
			return next(ctx, run)
		}
	}
}
