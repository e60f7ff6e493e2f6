package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	flowKey      contextKey = "flow"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithFlow tags the context with the auth flow or screen that started the work.
func WithFlow(ctx context.Context, flow string) context.Context {
	return context.WithValue(ctx, flowKey, flow)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetFlow retrieves the flow name from the context.
// Returns empty string if not present.
func GetFlow(ctx context.Context) string {
	if flow, ok := ctx.Value(flowKey).(string); ok {
		return flow
	}
	return ""
}
