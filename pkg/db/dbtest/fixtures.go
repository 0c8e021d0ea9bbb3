package dbtest

import (
	"testing"

	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// BookingOption mutates a fixture booking before insert.
type BookingOption func(*models.Booking)

// WithAddress sets the free-text address.
func WithAddress(address string) BookingOption {
	return func(b *models.Booking) { b.Address = &address }
}

// WithCustomer sets the customer name.
func WithCustomer(name string) BookingOption {
	return func(b *models.Booking) { b.CustomerName = &name }
}

// AssignedTo binds the booking to a worker-day.
func AssignedTo(workerID, workerName string, date types.Date) BookingOption {
	return func(b *models.Booking) {
		b.WorkerID = &workerID
		b.WorkerName = &workerName
		b.AssignedDate = &date
		b.AssignmentStatus = enums.AssignmentStatusAssigned
	}
}

// Located stamps coordinates with the given status.
func Located(lat, lng float64, status enums.GeocodeStatus) BookingOption {
	return func(b *models.Booking) {
		b.Latitude = &lat
		b.Longitude = &lng
		b.GeocodeStatus = status
	}
}

// Ranked sets route_order.
func Ranked(rank int) BookingOption {
	return func(b *models.Booking) { b.RouteOrder = &rank }
}

// Booking inserts a booking fixture and returns the stored row.
func Booking(t testing.TB, client *db.Client, orderNo string, opts ...BookingOption) *models.Booking {
	t.Helper()
	booking := &models.Booking{OrderNo: orderNo}
	for _, opt := range opts {
		opt(booking)
	}
	if err := client.DB().Create(booking).Error; err != nil {
		t.Fatalf("insert booking %s: %v", orderNo, err)
	}
	return booking
}

// Worker inserts an active worker fixture.
func Worker(t testing.TB, client *db.Client, workerID, name, mobile string) *models.Worker {
	t.Helper()
	worker := &models.Worker{WorkerID: workerID, Name: name, Mobile: mobile, Active: true}
	if err := client.DB().Create(worker).Error; err != nil {
		t.Fatalf("insert worker %s: %v", workerID, err)
	}
	return worker
}

// Reload fetches the current row for a booking.
func Reload(t testing.TB, client *db.Client, id int64) *models.Booking {
	t.Helper()
	var booking models.Booking
	if err := client.DB().First(&booking, "id = ?", id).Error; err != nil {
		t.Fatalf("reload booking %d: %v", id, err)
	}
	return &booking
}

// AuditActions lists the actions logged for a booking, oldest first.
func AuditActions(t testing.TB, client *db.Client, bookingID int64) []enums.AuditAction {
	t.Helper()
	var entries []models.AuditEntry
	if err := client.DB().Where("booking_id = ?", bookingID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load audit entries: %v", err)
	}
	actions := make([]enums.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.ActionType)
	}
	return actions
}
