package models

import (
	"time"

	"github.com/instafit/fieldops-backend/pkg/types"
)

// DayRoute is the summary of the most recent route build for a worker-day.
type DayRoute struct {
	ID                   int64      `gorm:"column:id;primaryKey;autoIncrement"`
	WorkerID             string     `gorm:"column:worker_id;not null;uniqueIndex:idx_day_routes_worker_date,priority:1"`
	RouteDate            types.Date `gorm:"column:route_date;type:date;not null;uniqueIndex:idx_day_routes_worker_date,priority:2"`
	StartLocation        string     `gorm:"column:start_location;not null"`
	StartLatitude        float64    `gorm:"column:start_latitude;not null"`
	StartLongitude       float64    `gorm:"column:start_longitude;not null"`
	TotalDistanceKM      float64    `gorm:"column:total_distance_km;not null"`
	TotalDurationMinutes int        `gorm:"column:total_duration_minutes;not null"`
	OrderSequence        string     `gorm:"column:order_sequence;not null"`
	MapURL               *string    `gorm:"column:map_url"`
	Active               bool       `gorm:"column:active;not null;default:true"`
	CreatedBy            string     `gorm:"column:created_by;not null"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
