package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/enums"
)

func testConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "fieldops",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testConfig(30)
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		Subject: "W-17",
		Name:    "Ravi Kumar",
		Role:    enums.ActorRoleWorker,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "W-17" {
		t.Fatalf("expected subject W-17, got %s", claims.Subject)
	}
	if claims.Role != enums.ActorRoleWorker {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.DisplayName() != "Ravi Kumar" {
		t.Fatalf("unexpected display name %q", claims.DisplayName())
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be generated")
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestDisplayNameFallsBackToSubject(t *testing.T) {
	cfg := testConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Subject: "ops-desk", Role: enums.ActorRoleOperator})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.DisplayName() != "ops-desk" {
		t.Fatalf("unexpected display name %q", claims.DisplayName())
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Subject: "ops", Role: enums.ActorRoleOperator})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
	other := cfg
	other.Secret = "other"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected secret mismatch error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{Subject: "W-1", Role: enums.ActorRoleWorker})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expiration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAccessTokenToleratesClockSkew(t *testing.T) {
	cfg := testConfig(1)
	// expired 10s ago, inside the allowed skew
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{Subject: "W-1", Role: enums.ActorRoleWorker})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err != nil {
		t.Fatalf("expected token within skew to parse, got %v", err)
	}

	future, err := MintAccessToken(cfg, time.Now().Add(5*time.Minute), AccessTokenPayload{Subject: "W-1", Role: enums.ActorRoleWorker})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, future); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected not-yet-valid token to be rejected, got %v", err)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testConfig(5)
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Subject: "x", Role: ""}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Subject: " ", Role: enums.ActorRoleOperator}); err == nil {
		t.Fatal("expected missing subject error")
	}
	if _, err := MintAccessToken(testConfig(0), time.Now(), AccessTokenPayload{Subject: "x", Role: enums.ActorRoleOperator}); err == nil {
		t.Fatal("expected non-positive ttl error")
	}
}
