package audit

import (
	"context"
	"fmt"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/pagination"
)

// Service exposes read access to the audit log.
type Service interface {
	History(ctx context.Context, bookingID int64) ([]models.AuditEntry, error)
	Search(ctx context.Context, filters Filters, params pagination.Params) (*List, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, bookingID int64) ([]models.AuditEntry, error) {
	entries, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load audit history")
	}
	return entries, nil
}

func (s *service) Search(ctx context.Context, filters Filters, params pagination.Params) (*List, error) {
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.Search(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search audit log")
	}
	return list, nil
}
