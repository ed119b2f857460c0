package middleware

import (
	"context"

	"github.com/mercanlabs/storefront-backend/internal/identity"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity injects the resolved caller into the context.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext returns the caller seeded by the Auth middleware.
// The second return is false when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	if ctx == nil {
		return identity.Identity{}, false
	}
	if v, ok := ctx.Value(ctxIdentity).(identity.Identity); ok && v.Valid() {
		return v, true
	}
	return identity.Identity{}, false
}
