package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const runnerTracerName = "procdock-runner"

func runnerTracer() trace.Tracer {
	return Tracer(runnerTracerName)
}

// TraceCommandRun creates a span for a command launch.
func TraceCommandRun(ctx context.Context, category, command string) (context.Context, trace.Span) {
	ctx, span := runnerTracer().Start(ctx, "command.run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("category", category),
		attribute.String("command", command),
	)
	return ctx, span
}

// TraceCommandRestart creates a span for a command restart.
func TraceCommandRestart(ctx context.Context, commandID string) (context.Context, trace.Span) {
	ctx, span := runnerTracer().Start(ctx, "command.restart",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String("command_id", commandID))
	return ctx, span
}

// TraceCommandResult records the outcome of a launch or restart on its span.
func TraceCommandResult(span trace.Span, commandID string, err error) {
	if commandID != "" {
		span.SetAttributes(attribute.String("command_id", commandID))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
