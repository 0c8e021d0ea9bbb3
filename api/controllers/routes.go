package controllers

import (
	"context"
	"net/http"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// RouteBuilder builds and persists a worker-day route.
type RouteBuilder interface {
	BuildRoute(ctx context.Context, input routing.BuildInput) (*routing.BuildResult, error)
}

type buildRouteRequest struct {
	WorkerID      string     `json:"workerId" validate:"required"`
	RouteDate     types.Date `json:"routeDate"`
	StartPostcode string     `json:"startPostcode" validate:"required,postcode"`
}

// BuildRoute orders a worker-day. A routing failure (no orders, failed
// geocodes, optimizer error) is a 200 with success=false.
func BuildRoute(builder RouteBuilder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body buildRouteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := builder.BuildRoute(r.Context(), routing.BuildInput{
			WorkerID:      body.WorkerID,
			Date:          body.RouteDate,
			StartPostcode: body.StartPostcode,
			Actor:         middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetRoute returns the worker-day plan with its persisted route summary.
func GetRoute(svc projections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := validators.PathParam(r, "workerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.DayPlan(r.Context(), workerID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}
