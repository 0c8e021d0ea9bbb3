package models

import "time"

// IngestMarker records that an upstream order number has been imported.
type IngestMarker struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNo        string    `gorm:"column:order_no;not null;uniqueIndex"`
	BookingID      int64     `gorm:"column:booking_id;not null"`
	FirstFetchedAt time.Time `gorm:"column:first_fetched_at;not null"`
	LastFetchedAt  time.Time `gorm:"column:last_fetched_at;not null"`
	FetchCount     int       `gorm:"column:fetch_count;not null;default:1"`
	FetchedBy      string    `gorm:"column:fetched_by;not null"`
}
