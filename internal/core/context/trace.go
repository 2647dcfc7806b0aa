// Package context carries correlation ids from the HTTP edge or a salesctl
// run down to the loaders and repositories that log on their behalf.
package context

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Origins of a trace.
const (
	OriginHTTP = "http"
	OriginCLI  = "cli"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// RequestID returns the request id from ctx or "".
func RequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewRunTrace creates ids for one command-line run. The request id is the
// command name plus a short random suffix, e.g. "import-1f3a9c2e".
func NewRunTrace(command string) *TraceContext {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &TraceContext{
		TraceID:   id,
		SpanID:    id[:16],
		RequestID: command + "-" + id[:8],
		Origin:    OriginCLI,
	}
}
