// Package middleware provides composable wrappers around workflow run
// attempts. The event bus applies the chain to every attempt it drives,
// so cross-cutting concerns like logging, panic recovery, timeouts, and
// tracing stay out of the workflow handlers themselves.
package middleware

import (
	"context"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Handler executes one attempt of a workflow run.
type Handler func(ctx context.Context, run *workflow.Run) error

// Middleware wraps a Handler with additional behavior.
type Middleware func(next Handler) Handler

// Chain composes middlewares so the first one listed is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
