// Package session carries the acting user through call chains explicitly,
// instead of a process-global "current user".
package session

import "context"

type ctxKey struct{}

// WithUser returns a context owning the given user id.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID extracts the session user, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
