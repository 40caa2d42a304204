package logger

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// connIDKey is the key for a connection id in context.Context.
var connIDKey = contextKey{}

// WithConnID returns a new context carrying connID, so the *Ctx logging
// functions can correlate every line emitted by a connection's receive and
// send loops without threading the id through every call site.
func WithConnID(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connIDKey, connID)
}

// FromContext retrieves the connection id bound to ctx, or "" if none.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(connIDKey).(string)
	return id
}
