package middleware

import (
	"context"
	"time"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Timeout bounds each attempt with a deadline. A non-positive duration
// disables the bound.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, run *workflow.Run) error {
			if d <= 0 {
				return next(ctx, run)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, run)
		}
	}
}
