package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/instafit/fieldops-backend/pkg/config"
)

// clockSkew tolerates small differences between issuing and verifying hosts.
const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs an HS256 token for payload valid from now for the
// configured number of minutes.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid actor role %q", payload.Role)
	}
	subject := strings.TrimSpace(payload.Subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	id := strings.TrimSpace(payload.JTI)
	if id == "" {
		id = uuid.NewString()
	}

	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute
	signed, err := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		Name: strings.TrimSpace(payload.Name),
		Role: payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry. Failures wrap
// ErrTokenExpired or ErrTokenInvalid.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case !claims.Role.IsValid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}
	return claims, nil
}
