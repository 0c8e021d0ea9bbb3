package controllers

import (
	"net/http"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/assignments"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

func MonitoringJobs(svc projections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.Monitoring(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type reassignRequest struct {
	JobID         int64      `json:"jobId" validate:"required,gt=0"`
	WorkerID      string     `json:"workerId" validate:"required"`
	AssignedDate  types.Date `json:"assignedDate"`
	StartPostcode string     `json:"startPostcode,omitempty" validate:"omitempty,postcode"`
	RoutingOption string     `json:"routingOption,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type reassignResponse struct {
	*assignments.ReassignResult
	Booking *projections.BookingView `json:"booking,omitempty"`
}

// ReassignJob moves one booking to another worker-day and optionally rebuilds
// the new day's route.
func ReassignJob(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reassignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := enums.ParseRoutingOption(body.RoutingOption)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid routingOption").WithDetails(map[string]any{"field": "routingOption"}))
			return
		}
		result, err := svc.Reassign(r.Context(), assignments.ReassignInput{
			BookingID:     body.JobID,
			WorkerID:      body.WorkerID,
			AssignedDate:  body.AssignedDate,
			StartPostcode: body.StartPostcode,
			RoutingOption: option,
			Notes:         validators.SanitizeText(body.Notes, maxNotesLength),
			Actor:         middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := reassignResponse{ReassignResult: result}
		if result.Booking != nil {
			view := projections.NewBookingView(*result.Booking)
			out.Booking = &view
		}
		responses.WriteSuccess(w, out)
	}
}
