package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// Booking is one customer job imported from the upstream feed, together with
// its assignment block, geo block and route rank.
type Booking struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNo        string              `gorm:"column:order_no;not null;uniqueIndex"`
	UserID         *string             `gorm:"column:user_id"`
	CustomerName   *string             `gorm:"column:customer_name"`
	CustomerMobile *string             `gorm:"column:customer_mobile"`
	ServiceName    *string             `gorm:"column:service_name"`
	ServiceID      *int64              `gorm:"column:service_id"`
	ServiceTypes   *string             `gorm:"column:service_types"`
	Status         *string             `gorm:"column:status"`
	PaymentID      *string             `gorm:"column:payment_id"`
	Address        *string             `gorm:"column:address"`
	EmployeeName   *string             `gorm:"column:employee_name"`
	EmployeePhone  *string             `gorm:"column:employee_phone"`
	BookingDate    *types.Date         `gorm:"column:booking_date;type:date"`
	BookingTime    *types.TimeOfDay    `gorm:"column:booking_time;type:time"`
	TotalPrice     decimal.NullDecimal `gorm:"column:total_price;type:numeric(12,2)"`
	SubmittedBy    *string             `gorm:"column:submitted_by"`
	SubmittedAt    *time.Time          `gorm:"column:submitted_at"`

	WorkerID         *string                `gorm:"column:worker_id;index:idx_bookings_worker_day,priority:1"`
	WorkerName       *string                `gorm:"column:worker_name"`
	AssignedDate     *types.Date            `gorm:"column:assigned_date;type:date;index:idx_bookings_worker_day,priority:2"`
	AssignmentStatus enums.AssignmentStatus `gorm:"column:assignment_status;not null;default:'SUBMITTED'"`

	Latitude      *float64            `gorm:"column:latitude"`
	Longitude     *float64            `gorm:"column:longitude"`
	GeocodeStatus enums.GeocodeStatus `gorm:"column:geocode_status;not null;default:'PENDING'"`
	RouteOrder    *int                `gorm:"column:route_order"`

	Notes types.NoteLog `gorm:"column:notes;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasCoordinates reports whether both coordinates are present.
func (b *Booking) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// AddressText returns the address or an empty string.
func (b *Booking) AddressText() string {
	if b.Address == nil {
		return ""
	}
	return *b.Address
}

// WorkerIDText returns the worker id or an empty string.
func (b *Booking) WorkerIDText() string {
	if b.WorkerID == nil {
		return ""
	}
	return *b.WorkerID
}
