package identity

import (
	"errors"
	"strings"

	"github.com/mercanlabs/storefront-backend/pkg/auth"
	"github.com/mercanlabs/storefront-backend/pkg/config"
	apperrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

// Resolver turns bearer credentials into a caller identity.
type Resolver struct {
	jwtConfig config.JWTConfig
}

// NewResolver builds the resolver from JWT settings.
func NewResolver(jwtConfig config.JWTConfig) (*Resolver, error) {
	if jwtConfig.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Resolver{jwtConfig: jwtConfig}, nil
}

// ResolveBearer validates an Authorization header value and returns the
// caller identity. Missing, malformed, expired or otherwise invalid
// credentials all map to the same unauthorized error so callers cannot
// probe token states.
func (r *Resolver) ResolveBearer(header string) (Identity, error) {
	token := strings.TrimSpace(header)
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "missing bearer token")
	}
	if parts := strings.SplitN(token, " ", 2); len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "invalid authorization scheme")
		}
		token = strings.TrimSpace(parts[1])
	}
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "missing bearer token")
	}

	claims, err := auth.ParseAccessToken(r.jwtConfig, token)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid or expired token")
	}

	switch claims.Kind {
	case auth.TokenKindUser:
		return User(claims.UserID), nil
	case auth.TokenKindGuest:
		return Guest(claims.GuestID), nil
	default:
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "invalid or expired token")
	}
}
