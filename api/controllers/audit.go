package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/instafit/fieldops-backend/api/responses"
	"github.com/instafit/fieldops-backend/api/validators"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/pagination"
)

type auditSearchResponse struct {
	Entries    []projections.AuditEntryView `json:"entries"`
	NextCursor string                       `json:"nextCursor,omitempty"`
}

// SearchAudit lists audit entries newest first, filtered by the query string.
func SearchAudit(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseAuditFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Search(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auditSearchResponse{
			Entries:    projections.NewAuditEntryViews(list.Entries),
			NextCursor: list.NextCursor,
		})
	}
}

func parseAuditFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	filters := audit.Filters{
		OrderNo: strings.TrimSpace(q.Get("orderNo")),
		Actor:   strings.TrimSpace(q.Get("actor")),
	}

	if raw := strings.TrimSpace(q.Get("bookingId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid bookingId").WithDetails(map[string]any{"field": "bookingId"})
		}
		filters.BookingID = &id
	}

	if raw := strings.TrimSpace(q.Get("action")); raw != "" {
		action, err := enums.ParseAuditAction(strings.ToUpper(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action").WithDetails(map[string]any{"field": "action"})
		}
		filters.Action = &action
	}

	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{{"from", &filters.From}, {"to", &filters.To}} {
		date, err := validators.ParseQueryDate(r, bound.key, false)
		if err != nil {
			return filters, err
		}
		if !date.IsZero() {
			t := date.Time()
			*bound.dest = &t
		}
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	return filters, nil
}
