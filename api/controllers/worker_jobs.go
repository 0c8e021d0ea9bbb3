package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

func callerWorkerID(r *http.Request) (string, error) {
	workerID := middleware.SubjectFromContext(r.Context())
	if workerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "worker context missing")
	}
	return workerID, nil
}

// WorkerJobs lists the caller's jobs across all dates.
func WorkerJobs(svc projections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := callerWorkerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.WorkerJobs(r.Context(), workerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// WorkerDayPlan returns the caller's stops for ?date=, defaulting to today
// (UTC).
func WorkerDayPlan(svc projections.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := callerWorkerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if date.IsZero() {
			date = types.NewDate(now().UTC())
		}
		plan, err := svc.DayPlan(r.Context(), workerID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

type jobStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

func UpdateJobStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := callerWorkerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body jobStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseAssignmentStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
			return
		}
		booking, err := svc.UpdateJobStatus(r.Context(), bookings.JobStatusInput{
			BookingID: id,
			WorkerID:  workerID,
			Status:    status,
			Notes:     validators.SanitizeText(body.Notes, maxNotesLength),
			Actor:     middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewBookingView(*booking))
	}
}
