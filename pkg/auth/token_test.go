package auth

import (
	"testing"
	"time"

	"github.com/mercanlabs/storefront-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
		GuestTTLHours:     168,
	}
}

func TestMintAndParseUserToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintUserToken(cfg, now, 42)
	if err != nil {
		t.Fatalf("mint user token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse user token: %v", err)
	}
	if claims.Kind != TokenKindUser {
		t.Fatalf("expected user kind, got %s", claims.Kind)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.GuestID != "" {
		t.Fatalf("user token should not carry a guest id")
	}
}

func TestMintAndParseGuestToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, guestID, err := MintGuestToken(cfg, now)
	if err != nil {
		t.Fatalf("mint guest token: %v", err)
	}
	if guestID == "" {
		t.Fatal("expected a guest id")
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse guest token: %v", err)
	}
	if claims.Kind != TokenKindGuest {
		t.Fatalf("expected guest kind, got %s", claims.Kind)
	}
	if claims.GuestID != guestID {
		t.Fatalf("guest id not preserved: %s != %s", claims.GuestID, guestID)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("guest token must expire")
	}
	want := now.Add(168 * time.Hour)
	if diff := claims.ExpiresAt.Time.Sub(want); diff > time.Second || diff < -time.Second {
		t.Fatalf("unexpected guest expiry %v", claims.ExpiresAt.Time)
	}
}

func TestParseRejectsExpiredGuestToken(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().UTC().Add(-200 * time.Hour)

	token, _, err := MintGuestToken(cfg, past)
	if err != nil {
		t.Fatalf("mint guest token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired guest token to be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	mintCfg := testJWTConfig()
	token, err := MintUserToken(mintCfg, time.Now().UTC(), 7)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	parseCfg := mintCfg
	parseCfg.Issuer = "someone-else"
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestMintUserTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintUserToken(cfg, time.Now(), 0); err == nil {
		t.Fatal("expected error for non-positive user id")
	}
	cfg.Secret = ""
	if _, err := MintUserToken(cfg, time.Now(), 1); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
