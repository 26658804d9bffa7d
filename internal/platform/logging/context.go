package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

var defaultLogger = slog.Default()

// FromContext returns the logger stored in ctx, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, defaultLogger)
}

// FromContextOr returns the logger stored in ctx, or fallback when there is
// none.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	return fallback
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithRequestID tags the context logger with the invocation's request ID,
// the same value sent to vendors in the X-Request-ID header.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, slog.String("request_id", requestID))
}

// WithTraceID tags the context logger with an OpenTelemetry trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return with(ctx, slog.String("trace_id", traceID))
}

func with(ctx context.Context, attrs ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(attrs...))
}

// SetDefault makes logger the fallback for FromContext and for slog's
// package-level functions.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
