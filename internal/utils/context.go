package utils

import (
	"context"
)

// TraceIDHeader carries the per-request trace id between client and server.
const TraceIDHeader = "X-Trace-ID"

type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// TraceIDCtxKey is the context key of the request trace id.
var TraceIDCtxKey = contextKey("traceID")

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDCtxKey, traceID)
}

// GetTraceIDFromContext returns the trace id stored in ctx.
func GetTraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(TraceIDCtxKey).(string)
	return traceID, ok && traceID != ""
}
