package users

import (
	"time"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
)

// AccountView is the transport shape that omits the password hash.
type AccountView struct {
	ID          int64           `json:"id"`
	PhoneNumber string          `json:"phoneNumber"`
	FullName    string          `json:"fullName"`
	Email       *string         `json:"email,omitempty"`
	Role        enums.ActorRole `json:"role"`
	WorkerID    *string         `json:"workerId,omitempty"`
	Active      bool            `json:"active"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func NewAccountView(a *models.UserAccount) *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{
		ID:          a.ID,
		PhoneNumber: a.PhoneNumber,
		FullName:    a.FullName,
		Email:       a.Email,
		Role:        a.Role,
		WorkerID:    a.WorkerID,
		Active:      a.Active,
		LastLoginAt: a.LastLoginAt,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
	}
}
