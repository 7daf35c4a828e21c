// ABOUTME: Identity context for tracking the resolved user through request handlers
// ABOUTME: Provides WithUser/UserFromContext for propagating the owner id via context

package identity

import (
	"context"
)

// userIDKey is the key type for storing the resolved user ID in context.Context.
type userIDKey struct{}

// WithUser returns a new context with the resolved user ID attached.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserFromContext retrieves the resolved user ID from the context.
// Returns the empty string if the request was not authenticated.
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
