package session

import "context"

type contextKey string

const sessionContextKey contextKey = "session"

// FromContext returns the visitor session stored by the visitor middleware,
// or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
