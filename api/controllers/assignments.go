package controllers

import (
	"net/http"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/assignments"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

type assignRequest struct {
	BookingIDs   []int64    `json:"bookingIds" validate:"required,min=1,dive,gt=0"`
	WorkerID     string     `json:"workerId" validate:"required"`
	AssignedDate types.Date `json:"assignedDate"`
}

// AssignBookings assigns bookings to a worker-day, then geocodes each one.
// Geocode failures are reported per booking and do not fail the request.
func AssignBookings(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Assign(r.Context(), assignments.AssignInput{
			BookingIDs:   body.BookingIDs,
			WorkerID:     body.WorkerID,
			AssignedDate: body.AssignedDate,
			Actor:        middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type locationResponse struct {
	assignments.GeocodeOutcome
	Booking *projections.BookingView `json:"booking,omitempty"`
}

func newLocationResponse(res *assignments.LocationResult) locationResponse {
	out := locationResponse{GeocodeOutcome: res.GeocodeOutcome}
	if res.Booking != nil {
		view := projections.NewBookingView(*res.Booking)
		out.Booking = &view
	}
	return out
}

type addressRequest struct {
	Address string `json:"address" validate:"required"`
}

func UpdateBookingAddress(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.UpdateAddressAndGeocode(r.Context(), id, body.Address, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLocationResponse(res))
	}
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func UpdateBookingCoordinates(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body coordinatesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.UpdateCoordinatesManual(r.Context(), id, *body.Latitude, *body.Longitude, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLocationResponse(res))
	}
}

type postcodeRequest struct {
	Postcode string `json:"postcode" validate:"required,postcode"`
}

func UpdateBookingPostcode(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body postcodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.UpdateGeocodeFromPostcode(r.Context(), id, body.Postcode, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLocationResponse(res))
	}
}
