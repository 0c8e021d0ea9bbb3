package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
	"github.com/instafit/fieldops-backend/pkg/upstream"
)

var createdAtLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// toBooking maps an upstream record onto a new booking row.
func toBooking(rec upstream.Record) (*models.Booking, error) {
	booking := &models.Booking{
		OrderNo:          rec.OrderNo,
		UserID:           rec.UserID,
		CustomerName:     rec.CustomerName,
		CustomerMobile:   rec.CustomerMobile,
		ServiceName:      rec.ServiceName,
		ServiceID:        rec.ServiceID,
		Status:           rec.Status,
		PaymentID:        rec.PaymentID,
		Address:          rec.Address,
		EmployeeName:     rec.EmployeeName,
		EmployeePhone:    rec.EmployeePhone,
		TotalPrice:       rec.TotalPrice,
		AssignmentStatus: enums.AssignmentStatusSubmitted,
		GeocodeStatus:    enums.GeocodeStatusPending,
	}

	serviceTypes, err := compactJSON(rec.ServiceTypes)
	if err != nil {
		return nil, fmt.Errorf("service_types: %w", err)
	}
	booking.ServiceTypes = serviceTypes

	if value := nonEmpty(rec.Date); value != "" {
		date, err := types.ParseDate(value)
		if err != nil {
			return nil, err
		}
		booking.BookingDate = &date
	}
	if value := nonEmpty(rec.BookingTime); value != "" {
		tod, err := types.ParseTimeOfDay(value)
		if err != nil {
			return nil, err
		}
		booking.BookingTime = &tod
	}
	if value := nonEmpty(rec.CreatedAt); value != "" {
		createdAt, err := parseCreatedAt(value)
		if err != nil {
			return nil, err
		}
		booking.CreatedAt = createdAt
	}
	return booking, nil
}

// parseCreatedAt keeps the wall clock of the upstream timestamp, drops any
// zone, and truncates to whole seconds.
func parseCreatedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return naive(t), nil
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at: invalid timestamp %q", raw)
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func compactJSON(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	out := buf.String()
	return &out, nil
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
