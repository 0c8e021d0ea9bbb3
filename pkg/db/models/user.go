package models

import (
	"time"

	"github.com/instafit/fieldops-backend/pkg/enums"
)

// UserAccount is a login identity. Worker accounts are bound to exactly one
// worker record; operator accounts carry no worker id.
type UserAccount struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PhoneNumber  string          `gorm:"column:phone_number;not null;uniqueIndex"`
	FullName     string          `gorm:"column:full_name;not null"`
	Email        *string         `gorm:"column:email"`
	Role         enums.ActorRole `gorm:"column:role;not null"`
	WorkerID     *string         `gorm:"column:worker_id"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Active       bool            `gorm:"column:active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedBy    string          `gorm:"column:created_by;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
