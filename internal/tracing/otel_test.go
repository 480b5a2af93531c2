package tracing

import (
	"context"
	"errors"
	"testing"
)

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips http prefix", input: "http://localhost:4318", expected: "localhost:4318"},
		{name: "strips https prefix", input: "https://otel.example.com:4318", expected: "otel.example.com:4318"},
		{name: "returns unchanged when no scheme", input: "localhost:4318", expected: "localhost:4318"},
		{name: "handles empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := endpointHost(tt.input)
			if got != tt.expected {
				t.Errorf("endpointHost(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTracerWithoutEndpointIsNoop(t *testing.T) {
	tracer := Tracer("test-tracer")
	if tracer == nil {
		t.Fatal("expected non-nil tracer")
	}
}

func TestTraceCommandRun(t *testing.T) {
	ctx := context.Background()

	t.Run("returns non-nil context and span", func(t *testing.T) {
		returnedCtx, span := TraceCommandRun(ctx, "serve", "/usr/bin/env")
		if returnedCtx == nil {
			t.Error("expected non-nil context")
		}
		if span == nil {
			t.Fatal("expected non-nil span")
		}
		TraceCommandResult(span, "serve-abc123", nil)
		span.End()
	})

	t.Run("records launch error", func(t *testing.T) {
		_, span := TraceCommandRun(ctx, "serve", "missing-binary")
		TraceCommandResult(span, "", errors.New("executable not found"))
		span.End()
	})
}

func TestTraceCommandRestart(t *testing.T) {
	_, span := TraceCommandRestart(context.Background(), "serve-abc123")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	TraceCommandResult(span, "serve-abc123", nil)
	span.End()
}

func TestShutdownWithoutInit(t *testing.T) {
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
