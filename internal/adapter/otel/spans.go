package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentcore"

// StartSendSpan starts a span for a message send.
func StartSendSpan(ctx context.Context, fromAgent, toAgent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "message.send",
		trace.WithAttributes(
			attribute.String("message.from_agent", fromAgent),
			attribute.String("message.to_agent", toAgent),
			attribute.Bool("message.broadcast", toAgent == ""),
		),
	)
}

// StartConflictSpan starts a span for a conflict lifecycle operation.
func StartConflictSpan(ctx context.Context, op, conflictID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "conflict."+op,
		trace.WithAttributes(
			attribute.String("conflict.id", conflictID),
		),
	)
}

// StartSweepSpan starts a span for an expiry sweep pass.
func StartSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "messages.sweep")
}
