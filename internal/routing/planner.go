package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/instafit/fieldops-backend/internal/address"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/maps"
	"github.com/instafit/fieldops-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	msgNoOrders       = "no orders assigned for this date"
	msgNoLocations    = "no valid locations"
	msgFailedGeocodes = "some bookings have no coordinates; fix their addresses before building the route"
)

// Optimizer orders waypoints for a closed loop.
type Optimizer interface {
	OptimizeRoute(ctx context.Context, origin, destination maps.LatLng, waypoints []maps.LatLng) maps.RouteResult
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type BuildInput struct {
	WorkerID      string
	Date          types.Date
	StartPostcode string
	Actor         types.Actor
}

// FailedBooking identifies a stop that blocks routing.
type FailedBooking struct {
	ID           int64  `json:"id"`
	OrderNo      string `json:"orderNo"`
	Address      string `json:"address"`
	CustomerName string `json:"customerName"`
}

type Stop struct {
	BookingID  int64   `json:"bookingId"`
	OrderNo    string  `json:"orderNo"`
	RouteOrder int     `json:"routeOrder"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// BuildResult is either a route summary (Success) or a failure message with
// any bookings that blocked the build.
type BuildResult struct {
	Success              bool            `json:"success"`
	Message              string          `json:"message,omitempty"`
	TotalDistanceKM      float64         `json:"totalDistanceKm"`
	TotalDurationMinutes int             `json:"totalDurationMinutes"`
	StopsInRoute         int             `json:"stopsInRoute"`
	OrderSequence        []int           `json:"orderSequence,omitempty"`
	MapURL               string          `json:"mapUrl,omitempty"`
	Stops                []Stop          `json:"stops,omitempty"`
	FailedBookings       []FailedBooking `json:"failedBookings,omitempty"`
}

func failure(message string) *BuildResult {
	return &BuildResult{Success: false, Message: message}
}

type PlannerParams struct {
	Bookings  bookings.Repository
	DayRoutes DayRouteRepository
	Audit     audit.Repository
	Tx        txRunner
	Locator   address.Service
	Optimizer Optimizer
	Logger    *logger.Logger
}

// Planner builds the visit order of a worker-day.
type Planner struct {
	bookings  bookings.Repository
	dayRoutes DayRouteRepository
	audit     audit.Repository
	tx        txRunner
	locator   address.Service
	optimizer Optimizer
	logg      *logger.Logger
}

func NewPlanner(params PlannerParams) (*Planner, error) {
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.DayRoutes == nil {
		return nil, fmt.Errorf("day route repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Locator == nil {
		return nil, fmt.Errorf("address locator required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Planner{
		bookings:  params.Bookings,
		dayRoutes: params.DayRoutes,
		audit:     params.Audit,
		tx:        params.Tx,
		locator:   params.Locator,
		optimizer: params.Optimizer,
		logg:      logg,
	}, nil
}

// BuildRoute ranks every booking of the worker-day. Dependency failures and
// unroutable days come back as an unsuccessful result with nothing written.
func (p *Planner) BuildRoute(ctx context.Context, input BuildInput) (*BuildResult, error) {
	workerID := strings.TrimSpace(input.WorkerID)
	if workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route date is required")
	}
	if err := address.ValidatePostcode(input.StartPostcode); err != nil {
		return nil, err
	}
	ctx = p.logg.WithFields(ctx, map[string]any{"worker_id": workerID, "route_date": input.Date.String()})

	day, err := p.bookings.ListByWorkerAndDate(ctx, workerID, input.Date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load worker day")
	}
	if len(day) == 0 {
		return failure(msgNoOrders), nil
	}

	var geocoded []models.Booking
	var missing []FailedBooking
	for _, b := range day {
		if b.HasCoordinates() {
			geocoded = append(geocoded, b)
			continue
		}
		missing = append(missing, FailedBooking{
			ID:           b.ID,
			OrderNo:      b.OrderNo,
			Address:      b.AddressText(),
			CustomerName: deref(b.CustomerName),
		})
	}
	if len(missing) > 0 {
		result := failure(msgFailedGeocodes)
		result.FailedBookings = missing
		return result, nil
	}
	if len(geocoded) == 0 {
		return failure(msgNoLocations), nil
	}

	startPostcode := strings.TrimSpace(input.StartPostcode)
	start := p.locator.LocatePostcode(ctx, startPostcode)
	if !start.Success {
		return failure("Could not geocode start location: " + start.Reason), nil
	}

	plan, reason := p.plan(ctx, start.Location, geocoded)
	if reason != "" {
		p.logg.Warn(p.logg.WithField(ctx, "reason", reason), "route optimization failed")
		return failure(reason), nil
	}

	stops := make([]Stop, 0, len(plan.sequence))
	points := make([]maps.LatLng, 0, len(plan.sequence))
	for i, idx := range plan.sequence {
		b := geocoded[idx]
		stops = append(stops, Stop{
			BookingID:  b.ID,
			OrderNo:    b.OrderNo,
			RouteOrder: i + 1,
			Latitude:   *b.Latitude,
			Longitude:  *b.Longitude,
		})
		points = append(points, maps.LatLng{Latitude: *b.Latitude, Longitude: *b.Longitude})
	}
	mapURL := maps.DirectionsURL(start.Location, points)

	sequence, err := json.Marshal(plan.sequence)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order sequence")
	}

	actor := input.Actor
	if actor.Name == "" {
		actor = types.SystemActor("")
	}
	err = p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := p.bookings.WithTx(tx)
		var changes []bookings.RankChange
		for i, idx := range plan.sequence {
			b := geocoded[idx]
			rank := i + 1
			if b.RouteOrder != nil && *b.RouteOrder == rank {
				continue
			}
			if err := repo.Update(ctx, b.ID, map[string]any{"route_order": rank}); err != nil {
				return err
			}
			from := 0
			if b.RouteOrder != nil {
				from = *b.RouteOrder
			}
			changes = append(changes, bookings.RankChange{BookingID: b.ID, OrderNo: b.OrderNo, From: from, To: rank})
		}

		route := &models.DayRoute{
			WorkerID:             workerID,
			RouteDate:            input.Date,
			StartLocation:        startPostcode,
			StartLatitude:        start.Location.Latitude,
			StartLongitude:       start.Location.Longitude,
			TotalDistanceKM:      plan.distanceKM,
			TotalDurationMinutes: plan.durationMinutes,
			OrderSequence:        string(sequence),
			MapURL:               &mapURL,
			Active:               true,
			CreatedBy:            actor.Name,
		}
		if err := p.dayRoutes.WithTx(tx).Upsert(ctx, route); err != nil {
			return err
		}
		return p.audit.WithTx(tx).CreateBatch(ctx, bookings.RankChangeEntries(changes, actor, "route built"))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist route")
	}

	p.logg.Info(p.logg.WithField(ctx, "stops", len(stops)), "route built")
	return &BuildResult{
		Success:              true,
		Message:              fmt.Sprintf("Route built with %d stops", len(stops)),
		TotalDistanceKM:      plan.distanceKM,
		TotalDurationMinutes: plan.durationMinutes,
		StopsInRoute:         len(stops),
		OrderSequence:        plan.sequence,
		MapURL:               mapURL,
		Stops:                stops,
	}, nil
}

type routePlan struct {
	sequence        []int
	distanceKM      float64
	durationMinutes int
}

// plan returns the visit order as indexes into geocoded, or a failure reason.
func (p *Planner) plan(ctx context.Context, start maps.LatLng, geocoded []models.Booking) (routePlan, string) {
	if len(geocoded) == 1 {
		only := geocoded[0]
		km := HaversineKM(start, maps.LatLng{Latitude: *only.Latitude, Longitude: *only.Longitude})
		return routePlan{sequence: []int{0}, distanceKM: km, durationMinutes: int(2 * km)}, ""
	}

	if p.optimizer == nil {
		return routePlan{}, "Route optimization failed: not configured"
	}
	waypoints := make([]maps.LatLng, 0, len(geocoded))
	for _, b := range geocoded {
		waypoints = append(waypoints, maps.LatLng{Latitude: *b.Latitude, Longitude: *b.Longitude})
	}
	res := p.optimizer.OptimizeRoute(ctx, start, start, waypoints)
	if !res.Success {
		return routePlan{}, res.Reason
	}
	if !isPermutation(res.WaypointOrder, len(geocoded)) {
		return routePlan{}, fmt.Sprintf("Route optimization failed: invalid waypoint order %v", res.WaypointOrder)
	}

	var meters int64
	minutes := 0
	for _, leg := range res.Legs {
		meters += leg.DistanceMeters
		minutes += int(leg.DurationSeconds / 60)
	}
	return routePlan{
		sequence:        append([]int(nil), res.WaypointOrder...),
		distanceKM:      float64(meters) / 1000,
		durationMinutes: minutes,
	}, ""
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
