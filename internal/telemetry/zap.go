package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a *zap.Logger to the Logger interface. keyvals are
// flattened pairs, matching the style used throughout the dynamic tool
// binding pipeline ("component", "toolset", "err", ...).
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{l: l}
}

func (z *ZapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	z.l.Debug(msg, fields(keyvals)...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	z.l.Info(msg, fields(keyvals)...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	z.l.Warn(msg, fields(keyvals)...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	z.l.Error(msg, fields(keyvals)...)
}

func fields(keyvals []any) []zap.Field {
	out := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		out = append(out, zap.Any(key, keyvals[i+1]))
	}
	return out
}

// NewStderrLogger builds a zap-backed Logger writing JSON records to stderr
// (or logFile, when non-empty) at the given level. stdout is never touched:
// it carries the MCP protocol.
func NewStderrLogger(logFile string, level string) (*zap.Logger, error) {
	var output zapcore.WriteSyncer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		output = zapcore.AddSync(f)
	} else {
		output = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), output, parseLevel(level))
	return zap.New(core), nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// ClueTracer-equivalent: OTEL-backed Tracer implementation.
type otelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer constructs a Tracer backed by the global OTEL TracerProvider.
// Configure the provider via an exporter before constructing the server;
// otherwise spans are recorded by the default no-op provider.
func NewOtelTracer(instrumentationName string) Tracer {
	return &otelTracer{tracer: otel.Tracer(instrumentationName)}
}

func (t *otelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}
