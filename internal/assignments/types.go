package assignments

import (
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

type AssignInput struct {
	BookingIDs   []int64
	WorkerID     string
	AssignedDate types.Date
	Actor        types.Actor
}

type ReassignInput struct {
	BookingID     int64
	WorkerID      string
	AssignedDate  types.Date
	StartPostcode string
	RoutingOption enums.RoutingOption
	Notes         string
	Actor         types.Actor
}

// GeocodeOutcome reports the location attempt for one booking.
type GeocodeOutcome struct {
	BookingID     int64               `json:"bookingId"`
	OrderNo       string              `json:"orderNo"`
	Success       bool                `json:"success"`
	GeocodeStatus enums.GeocodeStatus `json:"geocodeStatus"`
	Latitude      *float64            `json:"latitude,omitempty"`
	Longitude     *float64            `json:"longitude,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// AssignResult is returned even when some geocodes fail; the assignment itself
// has committed by then.
type AssignResult struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	WorkerID      string           `json:"workerId"`
	WorkerName    string           `json:"workerName"`
	AssignedDate  types.Date       `json:"assignedDate"`
	Assigned      int              `json:"assigned"`
	Geocoded      int              `json:"geocoded"`
	GeocodeFailed int              `json:"geocodeFailed"`
	Outcomes      []GeocodeOutcome `json:"outcomes"`
}

type ReassignResult struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Booking      *models.Booking      `json:"-"`
	OldWorkerID  string               `json:"oldWorkerId,omitempty"`
	NewWorkerID  string               `json:"newWorkerId"`
	Geocode      *GeocodeOutcome      `json:"geocode,omitempty"`
	Route        *routing.BuildResult `json:"route,omitempty"`
	RouteMessage string               `json:"routeMessage,omitempty"`
}

// LocationResult is the outcome of an operator-driven geocode fix.
type LocationResult struct {
	GeocodeOutcome
	Booking *models.Booking `json:"-"`
}
