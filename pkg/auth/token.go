package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mercanlabs/storefront-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintUserToken issues a signed JWT for a registered user using the
// configured TTL.
func MintUserToken(cfg config.JWTConfig, now time.Time, userID int64) (string, error) {
	if err := validateConfig(cfg); err != nil {
		return "", err
	}
	if userID <= 0 {
		return "", fmt.Errorf("user id must be positive")
	}

	claims := AccessTokenClaims{
		Kind:   TokenKindUser,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        uuid.NewString(),
		},
	}

	return sign(cfg, claims)
}

// MintGuestToken issues a self-contained guest credential. The guest id
// lives only inside the token; expiry is the token's expiry (7 days by
// default).
func MintGuestToken(cfg config.JWTConfig, now time.Time) (string, string, error) {
	if err := validateConfig(cfg); err != nil {
		return "", "", err
	}
	ttl := cfg.GuestTTL()
	if ttl <= 0 {
		return "", "", fmt.Errorf("guest token TTL must be positive")
	}

	guestID := uuid.NewString()
	claims := AccessTokenClaims{
		Kind:    TokenKindGuest,
		GuestID: guestID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token, err := sign(cfg, claims)
	if err != nil {
		return "", "", err
	}
	return token, guestID, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
// Expiry is enforced here, so expired guest tokens never reach the cart.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	switch claims.Kind {
	case TokenKindUser:
		if claims.UserID <= 0 {
			return nil, fmt.Errorf("user token missing user id")
		}
	case TokenKindGuest:
		if claims.GuestID == "" {
			return nil, fmt.Errorf("guest token missing guest id")
		}
	default:
		return nil, fmt.Errorf("unknown token kind %q", claims.Kind)
	}

	return claims, nil
}

func sign(cfg config.JWTConfig, claims AccessTokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func validateConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return fmt.Errorf("jwt expiration minutes must be positive")
	}
	return nil
}
