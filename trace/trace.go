// Package trace carries correlation identifiers for proposal submissions across
// process boundaries: the inbound request ID, the W3C traceparent and the job ID
// that the generation service echoes back.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDKey     contextKey = "trace_id"
	traceParentKey contextKey = "traceparent"
	jobIDKey       contextKey = "job_id"

	// HeaderXRequestID is the request correlation header.
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header.
	HeaderTraceParent = "traceparent"
	// HeaderJobID identifies a generation job on the wire.
	HeaderJobID = "X-Proposal-Job-ID"
)

// HeaderSetter abstracts header containers (HTTP headers, AMQP tables).
type HeaderSetter interface {
	Set(key string, value string)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns the trace ID stored in ctx.
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns the trace ID from ctx or a fresh UUID.
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return uuid.New().String()
}

// WithTraceParent stores an inbound traceparent value.
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext returns the traceparent stored in ctx.
func ParentFromContext(ctx context.Context) (string, bool) {
	if tp, ok := ctx.Value(traceParentKey).(string); ok && tp != "" {
		return tp, true
	}
	return "", false
}

// WithJobID tags the context with the generation job being submitted.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// JobIDFromContext returns the generation job ID stored in ctx.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(jobIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// InjectHeaders writes the correlation headers for an outbound generation call.
// A traceparent is generated when the context does not carry one.
func InjectHeaders(ctx context.Context, h HeaderSetter) {
	h.Set(HeaderXRequestID, EnsureTraceID(ctx))

	tp, ok := ParentFromContext(ctx)
	if !ok {
		tp = GenerateTraceParent()
	}
	h.Set(HeaderTraceParent, tp)

	if jobID, ok := JobIDFromContext(ctx); ok {
		h.Set(HeaderJobID, jobID)
	}
}

// GenerateTraceParent creates a W3C traceparent value: 00-<trace-id>-<span-id>-01.
func GenerateTraceParent() string {
	traceID := randomNonZero(16)
	spanID := randomNonZero(8)
	return "00-" + hex.EncodeToString(traceID) + "-" + hex.EncodeToString(spanID) + "-01"
}

// randomNonZero returns n random bytes. All-zero IDs are invalid per W3C so the
// last byte is forced to 1 in that case.
func randomNonZero(n int) []byte {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		b = make([]byte, n)
	}
	for _, v := range b {
		if v != 0 {
			return b
		}
	}
	b[n-1] = 0x01
	return b
}
