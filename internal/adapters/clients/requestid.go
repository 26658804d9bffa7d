package clients

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the header name for request ID.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// ContextWithRequestID stores a request ID in the context.
// An empty id generates a new UUID v4.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}

	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}
