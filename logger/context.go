package logger

import "context"

type contextKey struct{}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log Logger) context.Context {
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger attached to ctx, or fallback when none is present.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx == nil {
		return fallback
	}
	if log, ok := ctx.Value(contextKey{}).(Logger); ok {
		return log
	}
	return fallback
}
