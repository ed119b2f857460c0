package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mercanlabs/storefront-backend/api/responses"
	"github.com/mercanlabs/storefront-backend/internal/identity"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// Auth resolves the bearer token and seeds the request context with the
// caller's identity. Both registered users and guests pass; requests
// without a valid token are rejected.
func Auth(resolver *identity.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			caller, err := resolver.ResolveBearer(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), caller)

			if logg != nil {
				switch {
				case caller.IsUser():
					ctx = logg.WithUserID(ctx, strconv.FormatInt(caller.UserID, 10))
				case caller.IsGuest():
					ctx = logg.WithGuestID(ctx, caller.GuestID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
