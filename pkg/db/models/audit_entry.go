package models

import (
	"time"

	"github.com/instafit/fieldops-backend/pkg/enums"
)

// AuditEntry is an immutable record of a booking mutation.
type AuditEntry struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement"`
	BookingID    int64             `gorm:"column:booking_id;not null;index"`
	OrderNo      *string           `gorm:"column:order_no;index"`
	ActionType   enums.AuditAction `gorm:"column:action_type;not null"`
	ChangedBy    string            `gorm:"column:changed_by;not null"`
	OldValue     *string           `gorm:"column:old_value"`
	NewValue     *string           `gorm:"column:new_value"`
	FieldChanged *string           `gorm:"column:field_changed"`
	IPAddress    *string           `gorm:"column:ip_address"`
	Notes        *string           `gorm:"column:notes"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}
