package controllers

import (
	"context"
	"net/http"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/ingest"
	"github.com/instafit/fieldops-backend/internal/projections"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

const maxNotesLength = 2000

// BookingFetcher imports upstream bookings.
type BookingFetcher interface {
	Fetch(ctx context.Context, actor types.Actor) (*ingest.FetchResult, error)
}

type fetchResponse struct {
	Success  bool                      `json:"success"`
	Message  string                    `json:"message,omitempty"`
	Fetched  int                       `json:"fetched"`
	New      int                       `json:"new"`
	Skipped  int                       `json:"skipped"`
	Failed   int                       `json:"failed"`
	Bookings []projections.BookingView `json:"bookings"`
}

// FetchBookings pulls the upstream snapshot. An upstream failure is reported
// in the body with success=false and the current rows.
func FetchBookings(fetcher BookingFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fetcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fetcher unavailable"))
			return
		}
		result, err := fetcher.Fetch(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fetchResponse{
			Success:  result.Success,
			Message:  result.Message,
			Fetched:  result.Fetched,
			New:      result.New,
			Skipped:  result.Skipped,
			Failed:   result.Failed,
			Bookings: projections.NewBookingViews(result.Bookings),
		})
	}
}

func SubmittedBookings(svc projections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.SubmittedQueue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewBookingView(*booking))
	}
}

type bookingPatchRequest struct {
	CustomerName   *string          `json:"customerName,omitempty" validate:"omitempty,max=200"`
	CustomerMobile *string          `json:"customerMobile,omitempty" validate:"omitempty,max=20"`
	Address        *string          `json:"address,omitempty"`
	BookingDate    *types.Date      `json:"bookingDate,omitempty"`
	BookingTime    *types.TimeOfDay `json:"bookingTime,omitempty"`
	EmployeeName   *string          `json:"employeeName,omitempty" validate:"omitempty,max=200"`
	EmployeePhone  *string          `json:"employeePhone,omitempty" validate:"omitempty,max=20"`
	Notes          *string          `json:"notes,omitempty"`
}

func (p bookingPatchRequest) toPatch() bookings.Patch {
	patch := bookings.Patch{
		CustomerName:   p.CustomerName,
		CustomerMobile: p.CustomerMobile,
		Address:        p.Address,
		BookingDate:    p.BookingDate,
		BookingTime:    p.BookingTime,
		EmployeeName:   p.EmployeeName,
		EmployeePhone:  p.EmployeePhone,
	}
	if p.Notes != nil {
		notes := validators.SanitizeText(*p.Notes, maxNotesLength)
		patch.Notes = &notes
	}
	return patch
}

func UpdateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bookingPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Update(r.Context(), bookings.UpdateInput{
			BookingID: id,
			Patch:     body.toPatch(),
			Actor:     middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewBookingView(*booking))
	}
}

func SubmitBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Submit(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewBookingView(*booking))
	}
}

func BookingHistory(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewAuditEntryViews(entries))
	}
}
