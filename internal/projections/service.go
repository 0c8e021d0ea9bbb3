package projections

import (
	"context"
	"fmt"
	"strings"

	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/pkg/db"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// DayPlan is a worker's day: ranked stops in visit order, then stops that
// have not been routed yet.
type DayPlan struct {
	WorkerID     string        `json:"workerId"`
	Date         types.Date    `json:"date"`
	Stops        []BookingView `json:"stops"`
	Unranked     []BookingView `json:"unranked"`
	Route        *RouteSummary `json:"route"`
	TotalStops   int           `json:"totalStops"`
	RankedStops  int           `json:"rankedStops"`
	MissingGeo   int           `json:"missingGeo"`
	RouteCurrent bool          `json:"routeCurrent"`
}

type Service interface {
	DayPlan(ctx context.Context, workerID string, date types.Date) (*DayPlan, error)
	Monitoring(ctx context.Context) ([]BookingView, error)
	SubmittedQueue(ctx context.Context) ([]BookingView, error)
	WorkerJobs(ctx context.Context, workerID string) ([]BookingView, error)
}

type service struct {
	bookings  bookings.Repository
	dayRoutes routing.DayRouteRepository
}

func NewService(bookingRepo bookings.Repository, dayRoutes routing.DayRouteRepository) (Service, error) {
	if bookingRepo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if dayRoutes == nil {
		return nil, fmt.Errorf("day route repository required")
	}
	return &service{bookings: bookingRepo, dayRoutes: dayRoutes}, nil
}

func (s *service) DayPlan(ctx context.Context, workerID string, date types.Date) (*DayPlan, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}

	day, err := s.bookings.ListByWorkerAndDate(ctx, workerID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load day plan")
	}
	route, err := s.dayRoutes.Find(ctx, workerID, date)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load route summary")
	}

	plan := &DayPlan{
		WorkerID: workerID,
		Date:     date,
		Stops:    []BookingView{},
		Unranked: []BookingView{},
		Route:    newRouteSummary(route),
	}
	for _, b := range day {
		if b.RouteOrder != nil {
			plan.Stops = append(plan.Stops, NewBookingView(b))
		} else {
			plan.Unranked = append(plan.Unranked, NewBookingView(b))
		}
		if !b.HasCoordinates() {
			plan.MissingGeo++
		}
	}
	plan.TotalStops = len(day)
	plan.RankedStops = len(plan.Stops)
	plan.RouteCurrent = plan.Route != nil && plan.RankedStops > 0 && len(plan.Unranked) == 0
	return plan, nil
}

func (s *service) Monitoring(ctx context.Context) ([]BookingView, error) {
	rows, err := s.bookings.ListAssigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load monitoring list")
	}
	return NewBookingViews(rows), nil
}

func (s *service) SubmittedQueue(ctx context.Context) ([]BookingView, error) {
	rows, err := s.bookings.ListSubmitted(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load submitted queue")
	}
	return NewBookingViews(rows), nil
}

func (s *service) WorkerJobs(ctx context.Context, workerID string) ([]BookingView, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}
	rows, err := s.bookings.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load worker jobs")
	}
	return NewBookingViews(rows), nil
}
