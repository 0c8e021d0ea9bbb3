package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/internal/workers"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// ListWorkers returns workers by name; ?active=true limits to active ones.
func ListWorkers(svc workers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "active must be a boolean").WithDetails(map[string]any{"field": "active"}))
				return
			}
			activeOnly = parsed
		}
		list, err := svc.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewWorkerViews(list))
	}
}

type workerCreateRequest struct {
	WorkerID   string  `json:"workerId" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,notblank,max=200"`
	Mobile     string  `json:"mobile" validate:"required,max=20"`
	CityCode   *string `json:"cityCode,omitempty"`
	BranchCode *string `json:"branchCode,omitempty"`
	BranchDesc *string `json:"branchDesc,omitempty"`
}

func CreateWorker(svc workers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body workerCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		worker, err := svc.Create(r.Context(), workers.CreateInput{
			WorkerID:   body.WorkerID,
			Name:       body.Name,
			Mobile:     body.Mobile,
			CityCode:   body.CityCode,
			BranchCode: body.BranchCode,
			BranchDesc: body.BranchDesc,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, projections.NewWorkerView(*worker))
	}
}

type workerUpdateRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Mobile     *string `json:"mobile,omitempty" validate:"omitempty,min=1,max=20"`
	CityCode   *string `json:"cityCode,omitempty"`
	BranchCode *string `json:"branchCode,omitempty"`
	BranchDesc *string `json:"branchDesc,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

func UpdateWorker(svc workers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := validators.PathParam(r, "workerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body workerUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		worker, err := svc.Update(r.Context(), workerID, workers.UpdateInput{
			Name:       body.Name,
			Mobile:     body.Mobile,
			CityCode:   body.CityCode,
			BranchCode: body.BranchCode,
			BranchDesc: body.BranchDesc,
			Active:     body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projections.NewWorkerView(*worker))
	}
}
