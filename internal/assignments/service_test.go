package assignments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instafit/fieldops-backend/internal/address"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/internal/workers"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/dbtest"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/maps"
	"github.com/instafit/fieldops-backend/pkg/types"
)

type stubGeocoder struct {
	byQuery  map[string]maps.LatLng
	postcode maps.GeocodeResult
	queries  []string
}

func (s *stubGeocoder) GeocodeAddress(_ context.Context, query string) maps.GeocodeResult {
	s.queries = append(s.queries, query)
	if loc, ok := s.byQuery[query]; ok {
		return maps.GeocodeResult{Success: true, Location: loc}
	}
	return maps.GeocodeResult{Reason: "No results found for address"}
}

func (s *stubGeocoder) GeocodePostcode(context.Context, string, string) maps.GeocodeResult {
	return s.postcode
}

type stubOptimizer struct {
	result maps.RouteResult
	calls  int
}

func (s *stubOptimizer) OptimizeRoute(context.Context, maps.LatLng, maps.LatLng, []maps.LatLng) maps.RouteResult {
	s.calls++
	return s.result
}

var (
	ops      = types.Actor{Name: "ops", IPAddress: "10.0.0.9"}
	startLoc = maps.GeocodeResult{Success: true, Location: maps.LatLng{Latitude: 12.97, Longitude: 77.59}}
)

type fixture struct {
	svc       Service
	client    *db.Client
	geocoder  *stubGeocoder
	optimizer *stubOptimizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	geo := &stubGeocoder{byQuery: map[string]maps.LatLng{}, postcode: startLoc}
	opt := &stubOptimizer{}
	locator := address.NewService(geo)

	bookingRepo := bookings.NewRepository(client.DB())
	auditRepo := audit.NewRepository(client.DB())
	planner, err := routing.NewPlanner(routing.PlannerParams{
		Bookings:  bookingRepo,
		DayRoutes: routing.NewDayRouteRepository(client.DB()),
		Audit:     auditRepo,
		Tx:        client,
		Locator:   locator,
		Optimizer: opt,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Bookings: bookingRepo,
		Workers:  workers.NewRepository(client.DB()),
		Audit:    auditRepo,
		Tx:       client,
		Locator:  locator,
		Router:   planner,
		Now:      func() time.Time { return time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	dbtest.Worker(t, client, "W1", "Asha", "9000000001")
	dbtest.Worker(t, client, "W2", "Ravi", "9000000002")
	dbtest.Worker(t, client, "W", "Kiran", "9000000003")
	return &fixture{svc: svc, client: client, geocoder: geo, optimizer: opt}
}

func TestAssignPartialGeocodeThenRouteBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := types.MustParseDate("2025-01-15")
	b1 := dbtest.Booking(t, f.client, "B1", dbtest.WithAddress("1 MG Road - 560001"))
	b2 := dbtest.Booking(t, f.client, "B2", dbtest.WithAddress("Nowhere lane"))
	f.geocoder.byQuery["1 MG Road, 560001, India"] = maps.LatLng{Latitude: 12.97, Longitude: 77.59}

	result, err := f.svc.Assign(ctx, AssignInput{BookingIDs: []int64{b1.ID, b2.ID}, WorkerID: "W", AssignedDate: date, Actor: ops})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Assigned)
	assert.Equal(t, 1, result.Geocoded)
	assert.Equal(t, 1, result.GeocodeFailed)

	got1 := dbtest.Reload(t, f.client, b1.ID)
	got2 := dbtest.Reload(t, f.client, b2.ID)
	for _, b := range []*models.Booking{got1, got2} {
		assert.Equal(t, enums.AssignmentStatusAssigned, b.AssignmentStatus)
		assert.Equal(t, "W", *b.WorkerID)
		assert.Equal(t, "Kiran", *b.WorkerName)
		assert.True(t, b.AssignedDate.Equal(date))
	}
	assert.Equal(t, enums.GeocodeStatusSuccess, got1.GeocodeStatus)
	assert.InDelta(t, 12.97, *got1.Latitude, 1e-9)
	assert.Equal(t, enums.GeocodeStatusFailed, got2.GeocodeStatus)
	assert.Nil(t, got2.Latitude)

	assert.Equal(t, []enums.AuditAction{enums.AuditActionAssigned, enums.AuditActionGeocoded}, dbtest.AuditActions(t, f.client, b1.ID))
	assert.Equal(t, []enums.AuditAction{enums.AuditActionAssigned, enums.AuditActionGeocoded}, dbtest.AuditActions(t, f.client, b2.ID))

	planner, err := routing.NewPlanner(routing.PlannerParams{
		Bookings:  bookings.NewRepository(f.client.DB()),
		DayRoutes: routing.NewDayRouteRepository(f.client.DB()),
		Audit:     audit.NewRepository(f.client.DB()),
		Tx:        f.client,
		Locator:   address.NewService(f.geocoder),
		Optimizer: f.optimizer,
	})
	require.NoError(t, err)
	route, err := planner.BuildRoute(ctx, routing.BuildInput{WorkerID: "W", Date: date, StartPostcode: "560001"})
	require.NoError(t, err)
	assert.False(t, route.Success)
	require.Len(t, route.FailedBookings, 1)
	assert.Equal(t, b2.ID, route.FailedBookings[0].ID)
	assert.Nil(t, dbtest.Reload(t, f.client, b1.ID).RouteOrder)
}

func TestAssignEmptyAddressFailsWithoutGeocoderCall(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Booking(t, f.client, "B1")

	result, err := f.svc.Assign(context.Background(), AssignInput{
		BookingIDs: []int64{b.ID}, WorkerID: "W1", AssignedDate: types.MustParseDate("2025-01-15"), Actor: ops,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GeocodeFailed)
	assert.Empty(t, f.geocoder.queries)
	assert.Equal(t, enums.GeocodeStatusFailed, dbtest.Reload(t, f.client, b.ID).GeocodeStatus)
}

func TestAssignValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := types.MustParseDate("2025-01-15")
	b := dbtest.Booking(t, f.client, "B1")

	_, err := f.svc.Assign(ctx, AssignInput{WorkerID: "W1", AssignedDate: date})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Assign(ctx, AssignInput{BookingIDs: []int64{b.ID}, WorkerID: "W9", AssignedDate: date})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Assign(ctx, AssignInput{BookingIDs: []int64{b.ID, 999}, WorkerID: "W1", AssignedDate: date})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Nil(t, dbtest.Reload(t, f.client, b.ID).WorkerID, "failed batch must not partially assign")
}

func TestAssignToNewDayCompactsFormerGroup(t *testing.T) {
	f := newFixture(t)
	day := types.MustParseDate("2025-03-10")
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusManual)
	first := dbtest.Booking(t, f.client, "B1", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(1), dbtest.WithAddress("7 Park Street - 560003"))
	second := dbtest.Booking(t, f.client, "B2", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(2))
	f.geocoder.byQuery["7 Park Street, 560003, India"] = maps.LatLng{Latitude: 12.95, Longitude: 77.61}

	_, err := f.svc.Assign(context.Background(), AssignInput{
		BookingIDs: []int64{first.ID}, WorkerID: "W1", AssignedDate: types.MustParseDate("2025-03-11"), Actor: ops,
	})
	require.NoError(t, err)

	moved := dbtest.Reload(t, f.client, first.ID)
	assert.Nil(t, moved.RouteOrder)
	assert.Equal(t, 1, *dbtest.Reload(t, f.client, second.ID).RouteOrder)

	assert.Equal(t, []string{"7 Park Street, 560003, India"}, f.geocoder.queries)
	assert.Equal(t, enums.GeocodeStatusSuccess, moved.GeocodeStatus)
	assert.InDelta(t, 12.95, *moved.Latitude, 1e-9)
	assert.InDelta(t, 77.61, *moved.Longitude, 1e-9)
}

func TestAssignRegeocodesManuallyPlacedBooking(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Booking(t, f.client, "B1", dbtest.Located(1, 1, enums.GeocodeStatusSuccessManual))

	result, err := f.svc.Assign(context.Background(), AssignInput{
		BookingIDs: []int64{b.ID}, WorkerID: "W1", AssignedDate: types.MustParseDate("2025-03-10"), Actor: ops,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GeocodeFailed)

	got := dbtest.Reload(t, f.client, b.ID)
	assert.Equal(t, enums.GeocodeStatusFailed, got.GeocodeStatus)
	assert.Nil(t, got.Latitude)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionAssigned, enums.AuditActionGeocoded}, dbtest.AuditActions(t, f.client, b.ID))
}

func TestReassignAutoRebuildsNewDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d1 := types.MustParseDate("2025-03-10")
	d2 := types.MustParseDate("2025-03-11")
	located := func(lat float64) dbtest.BookingOption {
		return dbtest.Located(lat, 77.6, enums.GeocodeStatusSuccess)
	}
	dbtest.Booking(t, f.client, "A1", dbtest.AssignedTo("W1", "Asha", d1), located(12.91), dbtest.Ranked(1))
	dbtest.Booking(t, f.client, "A2", dbtest.AssignedTo("W1", "Asha", d1), located(12.92), dbtest.Ranked(2))
	target := dbtest.Booking(t, f.client, "A3", dbtest.AssignedTo("W1", "Asha", d1), located(12.93), dbtest.Ranked(3))
	other := dbtest.Booking(t, f.client, "C1", dbtest.AssignedTo("W2", "Ravi", d2), located(12.95))
	f.optimizer.result = maps.RouteResult{
		Success:       true,
		WaypointOrder: []int{1, 0},
		Legs:          []maps.Leg{{DistanceMeters: 1000, DurationSeconds: 120}, {DistanceMeters: 1000, DurationSeconds: 120}, {DistanceMeters: 1000, DurationSeconds: 120}},
	}

	result, err := f.svc.Reassign(ctx, ReassignInput{
		BookingID:     target.ID,
		WorkerID:      "W2",
		AssignedDate:  d2,
		StartPostcode: "560001",
		RoutingOption: enums.RoutingOptionAuto,
		Actor:         ops,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Route)
	assert.True(t, result.Route.Success, result.RouteMessage)
	assert.Equal(t, "W1", result.OldWorkerID)

	moved := dbtest.Reload(t, f.client, target.ID)
	assert.Equal(t, "W2", *moved.WorkerID)
	assert.Equal(t, "Ravi", *moved.WorkerName)
	assert.True(t, moved.AssignedDate.Equal(d2))
	require.NotNil(t, moved.RouteOrder)
	ranks := map[int]bool{*moved.RouteOrder: true, *dbtest.Reload(t, f.client, other.ID).RouteOrder: true}
	assert.Equal(t, map[int]bool{1: true, 2: true}, ranks)

	var entry models.AuditEntry
	require.NoError(t, f.client.DB().Where("booking_id = ? AND action_type = ?", target.ID, enums.AuditActionReassigned).First(&entry).Error)
	assert.Equal(t, "W1", *entry.OldValue)
	assert.Equal(t, "W2", *entry.NewValue)
	assert.Equal(t, "10.0.0.9", *entry.IPAddress)

	require.Len(t, moved.Notes, 1)
	rendered := moved.Notes.Render()
	assert.True(t, strings.HasPrefix(rendered, "\n[2025-03-09 18:00:00] REASSIGNED by ops"))
	assert.Contains(t, rendered, "From: Asha (W1)")
	assert.Contains(t, rendered, "Reason: Manual reassignment")
}

func TestReassignManualLeavesRankCleared(t *testing.T) {
	f := newFixture(t)
	d1 := types.MustParseDate("2025-03-10")
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess)
	target := dbtest.Booking(t, f.client, "A1", dbtest.AssignedTo("W1", "Asha", d1), located, dbtest.Ranked(1))
	sibling := dbtest.Booking(t, f.client, "A2", dbtest.AssignedTo("W1", "Asha", d1), located, dbtest.Ranked(2))

	result, err := f.svc.Reassign(context.Background(), ReassignInput{
		BookingID: target.ID, WorkerID: "W2", AssignedDate: d1, Notes: "customer asked", Actor: ops,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Route)
	assert.Zero(t, f.optimizer.calls)
	assert.Nil(t, dbtest.Reload(t, f.client, target.ID).RouteOrder)
	assert.Equal(t, 1, *dbtest.Reload(t, f.client, sibling.ID).RouteOrder)
	assert.Contains(t, dbtest.Reload(t, f.client, target.ID).Notes.Render(), "Reason: customer asked")
}

func TestReassignRouteFailureKeepsReassignment(t *testing.T) {
	f := newFixture(t)
	target := dbtest.Booking(t, f.client, "A1", dbtest.WithAddress("Unknown"))

	result, err := f.svc.Reassign(context.Background(), ReassignInput{
		BookingID: target.ID, WorkerID: "W2", AssignedDate: types.MustParseDate("2025-03-11"),
		StartPostcode: "560001", RoutingOption: enums.RoutingOptionAuto, Actor: ops,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Geocode)
	assert.False(t, result.Geocode.Success)
	require.NotNil(t, result.Route)
	assert.False(t, result.Route.Success)
	assert.NotEmpty(t, result.RouteMessage)
	assert.Equal(t, "W2", *dbtest.Reload(t, f.client, target.ID).WorkerID)
}

func TestReassignValidation(t *testing.T) {
	f := newFixture(t)
	target := dbtest.Booking(t, f.client, "A1")
	ctx := context.Background()
	date := types.MustParseDate("2025-03-11")

	_, err := f.svc.Reassign(ctx, ReassignInput{BookingID: target.ID, WorkerID: "W2", AssignedDate: date, RoutingOption: enums.RoutingOptionAuto})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Reassign(ctx, ReassignInput{BookingID: target.ID, WorkerID: "W2", AssignedDate: date, RoutingOption: "sometimes"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Reassign(ctx, ReassignInput{BookingID: 999, WorkerID: "W2", AssignedDate: date})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateCoordinatesManual(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Booking(t, f.client, "B1")

	result, err := f.svc.UpdateCoordinatesManual(context.Background(), b.ID, 12.5, 77.5, ops)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, enums.GeocodeStatusManual, result.GeocodeStatus)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionGeocoded}, dbtest.AuditActions(t, f.client, b.ID))

	_, err = f.svc.UpdateCoordinatesManual(context.Background(), b.ID, 120, 77.5, ops)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAddressAndGeocode(t *testing.T) {
	f := newFixture(t)
	day := types.MustParseDate("2025-03-10")
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess)
	b := dbtest.Booking(t, f.client, "B1", dbtest.WithAddress("Old - 560001"), dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(1))
	sibling := dbtest.Booking(t, f.client, "B2", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(2))
	f.geocoder.byQuery["New Road, 560002, India"] = maps.LatLng{Latitude: 12.99, Longitude: 77.7}

	ok, err := f.svc.UpdateAddressAndGeocode(context.Background(), b.ID, "New Road - 560002", ops)
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Equal(t, enums.GeocodeStatusSuccess, ok.GeocodeStatus)
	assert.InDelta(t, 12.99, *ok.Latitude, 1e-9)

	var entry models.AuditEntry
	require.NoError(t, f.client.DB().Where("booking_id = ? AND action_type = ?", b.ID, enums.AuditActionUpdated).First(&entry).Error)
	assert.Contains(t, *entry.NewValue, "Old - 560001 → New Road - 560002")

	failed, err := f.svc.UpdateAddressAndGeocode(context.Background(), b.ID, "Somewhere unknown", ops)
	require.NoError(t, err)
	assert.False(t, failed.Success)
	reloaded := dbtest.Reload(t, f.client, b.ID)
	assert.Equal(t, enums.GeocodeStatusFailed, reloaded.GeocodeStatus)
	assert.Nil(t, reloaded.Latitude)
	assert.Nil(t, reloaded.RouteOrder)
	assert.Equal(t, "Somewhere unknown", *reloaded.Address)
	assert.Equal(t, 1, *dbtest.Reload(t, f.client, sibling.ID).RouteOrder)
}

func TestUpdateGeocodeFromPostcode(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Booking(t, f.client, "B1")
	ctx := context.Background()

	f.geocoder.postcode = maps.GeocodeResult{Reason: "No results found for address"}
	failed, err := f.svc.UpdateGeocodeFromPostcode(ctx, b.ID, "560001", ops)
	require.NoError(t, err)
	assert.False(t, failed.Success)
	assert.Equal(t, enums.GeocodeStatusPending, dbtest.Reload(t, f.client, b.ID).GeocodeStatus)
	assert.Empty(t, dbtest.AuditActions(t, f.client, b.ID))

	f.geocoder.postcode = startLoc
	ok, err := f.svc.UpdateGeocodeFromPostcode(ctx, b.ID, "560001", ops)
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Equal(t, enums.GeocodeStatusSuccessManual, dbtest.Reload(t, f.client, b.ID).GeocodeStatus)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionGeocoded}, dbtest.AuditActions(t, f.client, b.ID))

	_, err = f.svc.UpdateGeocodeFromPostcode(ctx, b.ID, "56", ops)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
