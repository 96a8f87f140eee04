// Package auth carries the visitor's sign-in identity through the request
// context.
//
// Sign-in itself happens in an external service that issues the profile
// cookie. This package is imported by both middleware and handler packages
// without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const profileContextKey contextKey = "profile_id"

// GetProfileID returns the signed-in profile ID, or uuid.Nil for anonymous
// visitors.
func GetProfileID(ctx context.Context) uuid.UUID {
	id, ok := ctx.Value(profileContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// IsAuthenticated reports whether the request carries a profile identity.
// The profile itself may still be loading.
func IsAuthenticated(ctx context.Context) bool {
	return GetProfileID(ctx) != uuid.Nil
}

// IsAuthenticatedRequest is IsAuthenticated for r's context.
func IsAuthenticatedRequest(r *http.Request) bool {
	return IsAuthenticated(r.Context())
}

// SetProfileID stores the signed-in profile ID in ctx.
func SetProfileID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, profileContextKey, id)
}
