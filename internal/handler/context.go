package handler

import (
	"context"

	"github.com/rslater/leadscout/internal/clerk"
)

type contextKey struct{}

// WithIdentity stores the verified identity in the context.
func WithIdentity(ctx context.Context, id *clerk.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext retrieves the verified identity, or nil.
func IdentityFromContext(ctx context.Context) *clerk.Identity {
	id, _ := ctx.Value(contextKey{}).(*clerk.Identity)
	return id
}
