package models

import "time"

// Worker is a field worker who can be assigned bookings.
type Worker struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	WorkerID   string    `gorm:"column:worker_id;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	Mobile     string    `gorm:"column:mobile;not null;uniqueIndex"`
	CityCode   *string   `gorm:"column:city_code"`
	BranchCode *string   `gorm:"column:branch_code"`
	BranchDesc *string   `gorm:"column:branch_desc"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
