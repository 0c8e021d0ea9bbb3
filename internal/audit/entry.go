package audit

import (
	"encoding/json"
	"fmt"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// Event describes one booking mutation to be logged.
type Event struct {
	Booking      *models.Booking
	Action       enums.AuditAction
	Actor        types.Actor
	OldValue     string
	NewValue     string
	FieldChanged string
	Notes        string
}

// NewEntry turns an event into a row ready for insert.
func NewEntry(e Event) models.AuditEntry {
	entry := models.AuditEntry{
		ActionType:   e.Action,
		ChangedBy:    e.Actor.Name,
		OldValue:     optional(e.OldValue),
		NewValue:     optional(e.NewValue),
		FieldChanged: optional(e.FieldChanged),
		IPAddress:    e.Actor.IPPtr(),
		Notes:        optional(e.Notes),
	}
	if e.Booking != nil {
		entry.BookingID = e.Booking.ID
		entry.OrderNo = optional(e.Booking.OrderNo)
	}
	if entry.ChangedBy == "" {
		entry.ChangedBy = types.SystemActor("").Name
	}
	return entry
}

// Diff collects field changes rendered as "old → new".
type Diff map[string]string

// Add records a change when old and new differ.
func (d Diff) Add(field, oldValue, newValue string) {
	if oldValue == newValue {
		return
	}
	d[field] = Change(oldValue, newValue)
}

// Empty reports whether no field changed.
func (d Diff) Empty() bool {
	return len(d) == 0
}

// JSON serialises the diff with sorted keys.
func (d Diff) JSON() string {
	raw, err := json.Marshal(map[string]string(d))
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Change renders one transition.
func Change(oldValue, newValue string) string {
	return fmt.Sprintf("%s → %s", oldValue, newValue)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
