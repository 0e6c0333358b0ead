package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxdesk/fluxdesk/workflow"
)

// Tracing starts an OpenTelemetry span per run attempt.
func Tracing(tracerName string) Middleware {
	tracer := otel.Tracer(tracerName)

	return func(next Handler) Handler {
		return func(ctx context.Context, run *workflow.Run) error {
			ctx, span := tracer.Start(ctx, "workflow.attempt",
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("workflow.run_id", run.ID.String()),
					attribute.String("workflow.handler", run.Handler),
					attribute.String("workflow.event", run.EventName),
					attribute.Int("workflow.attempt", run.Attempt),
				),
			)
			defer span.End()

			err := next(ctx, run)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}
