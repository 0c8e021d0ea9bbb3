package auth

import (
	"time"

	"github.com/instafit/fieldops-backend/internal/users"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// LoginRequest carries the phone number and password sent to the login endpoint.
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse contains the bearer token and the authenticated account.
type LoginResponse struct {
	AccessToken string             `json:"accessToken"`
	TokenType   string             `json:"tokenType"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Account     *users.AccountView `json:"account"`
}

// RegisterInput creates an account. Worker accounts must name an existing
// active worker and default their password to the worker's mobile number.
type RegisterInput struct {
	PhoneNumber string
	FullName    string
	Email       *string
	Password    string
	Role        enums.ActorRole
	WorkerID    string
	Actor       types.Actor
}
