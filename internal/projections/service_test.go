package projections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/dbtest"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/types"
)

var day = types.MustParseDate("2025-03-10")

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(bookings.NewRepository(client.DB()), routing.NewDayRouteRepository(client.DB()))
	require.NoError(t, err)
	return svc, client
}

func TestDayPlanSeparatesRankedStops(t *testing.T) {
	svc, client := newTestService(t)
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess)
	dbtest.Booking(t, client, "B1", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(2))
	dbtest.Booking(t, client, "B2", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(1))
	dbtest.Booking(t, client, "B3", dbtest.AssignedTo("W1", "Asha", day))

	plan, err := svc.DayPlan(context.Background(), "W1", day)
	require.NoError(t, err)
	require.Len(t, plan.Stops, 2)
	assert.Equal(t, "B2", plan.Stops[0].OrderNo)
	assert.Equal(t, "B1", plan.Stops[1].OrderNo)
	require.Len(t, plan.Unranked, 1)
	assert.Equal(t, "B3", plan.Unranked[0].OrderNo)
	assert.Equal(t, 3, plan.TotalStops)
	assert.Equal(t, 1, plan.MissingGeo)
	assert.Nil(t, plan.Route)
	assert.False(t, plan.RouteCurrent)
}

func TestDayPlanIncludesRouteSummary(t *testing.T) {
	svc, client := newTestService(t)
	dbtest.Booking(t, client, "B1", dbtest.AssignedTo("W1", "Asha", day),
		dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess), dbtest.Ranked(1))
	require.NoError(t, client.DB().Create(&models.DayRoute{
		WorkerID: "W1", RouteDate: day, StartLocation: "560001", TotalDistanceKM: 3.5,
		TotalDurationMinutes: 7, OrderSequence: "[0]", Active: true, CreatedBy: "ops",
	}).Error)

	plan, err := svc.DayPlan(context.Background(), "W1", day)
	require.NoError(t, err)
	require.NotNil(t, plan.Route)
	assert.Equal(t, "[0]", plan.Route.OrderSequence)
	assert.True(t, plan.RouteCurrent)
}

func TestDayPlanValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.DayPlan(context.Background(), "", day)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMonitoringAndSubmittedQueue(t *testing.T) {
	svc, client := newTestService(t)
	older := dbtest.Booking(t, client, "S1")
	newer := dbtest.Booking(t, client, "S2")
	require.NoError(t, client.DB().Model(&models.Booking{}).Where("id = ?", older.ID).
		Update("created_at", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).Error)
	dbtest.Booking(t, client, "A1", dbtest.AssignedTo("W1", "Asha", types.MustParseDate("2025-03-09")))
	dbtest.Booking(t, client, "A2", dbtest.AssignedTo("W2", "Ravi", types.MustParseDate("2025-03-11")))

	queue, err := svc.SubmittedQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, newer.ID, queue[0].ID)

	monitoring, err := svc.Monitoring(context.Background())
	require.NoError(t, err)
	require.Len(t, monitoring, 2)
	assert.Equal(t, "A2", monitoring[0].OrderNo)
	assert.Equal(t, "A1", monitoring[1].OrderNo)

	jobs, err := svc.WorkerJobs(context.Background(), "W1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "A1", jobs[0].OrderNo)
}

func TestBookingViewRendersNotes(t *testing.T) {
	b := models.Booking{
		OrderNo: "B1",
		Notes: types.NoteLog{{
			At: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), Kind: types.NoteKindOperator, Text: "gate code 42",
		}},
	}
	view := NewBookingView(b)
	assert.Equal(t, "\n[2025-03-10 09:00:00] gate code 42", view.Notes)
	assert.Nil(t, view.TotalPrice)
}
