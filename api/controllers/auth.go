package controllers

import (
	"net/http"

	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/auth"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// Login exchanges a phone number and password for a bearer token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type registerAccountRequest struct {
	PhoneNumber string          `json:"phoneNumber" validate:"required,max=20"`
	FullName    string          `json:"fullName" validate:"required,notblank,max=200"`
	Email       *string         `json:"email,omitempty" validate:"omitempty,email"`
	Password    string          `json:"password,omitempty" validate:"omitempty,max=128"`
	Role        enums.ActorRole `json:"role" validate:"required"`
	WorkerID    string          `json:"workerId,omitempty" validate:"omitempty,max=64"`
}

func RegisterAccount(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Register(r.Context(), auth.RegisterInput{
			PhoneNumber: body.PhoneNumber,
			FullName:    body.FullName,
			Email:       body.Email,
			Password:    body.Password,
			Role:        body.Role,
			WorkerID:    body.WorkerID,
			Actor:       middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CheckPhone reports whether ?phoneNumber= is free for a new account.
func CheckPhone(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := r.URL.Query().Get("phoneNumber")
		if phone == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phoneNumber is required").
				WithDetails(map[string]any{"field": "phoneNumber"}))
			return
		}
		available, err := svc.PhoneAvailable(r.Context(), phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"phoneNumber": phone, "available": available})
	}
}
