package auth

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes durable user tokens from ephemeral guest tokens.
type TokenKind string

const (
	TokenKindUser  TokenKind = "user"
	TokenKindGuest TokenKind = "guest"
)

// AccessTokenClaims represents the typed JWT issued to clients. User tokens
// carry a user id; guest tokens carry only an opaque guest id. There is no
// server-side guest registry.
type AccessTokenClaims struct {
	Kind    TokenKind `json:"kind"`
	UserID  int64     `json:"user_id,omitempty"`
	GuestID string    `json:"guest_id,omitempty"`
	jwt.RegisteredClaims
}
