package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/instafit/fieldops-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Subject is the operator login or, for workers, the worker_id.
type AccessTokenPayload struct {
	Subject string
	Name    string
	Role    enums.ActorRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Name string          `json:"name,omitempty"`
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// DisplayName is the name recorded in audit entries for this caller.
func (c *AccessTokenClaims) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Subject
}
