// Package telemetry provides the Logger and Tracer contracts used across the
// server. Logging always goes to stderr (or an explicit log file) because
// stdout is reserved for the MCP JSON-RPC transport.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger emits structured log records. Implementations must never write
	// to stdout.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Tracer starts spans for ARM calls and tool lifecycle operations.
	Tracer interface {
		Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
	}
)

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

// NewNoopTracer returns a Tracer that never records anything.
func NewNoopTracer() Tracer { return noopTracer{} }

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return trace.NewNoopTracerProvider().Tracer("noop").Start(ctx, name, opts...)
}
