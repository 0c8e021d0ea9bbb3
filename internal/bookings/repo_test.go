package bookings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/instafit/fieldops-backend/pkg/db/dbtest"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

var day = types.MustParseDate("2025-03-10")

func TestRepositoryListByWorkerAndDateOrdersByRank(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	unranked := dbtest.Booking(t, client, "ORD-1", dbtest.AssignedTo("W1", "Asha", day))
	second := dbtest.Booking(t, client, "ORD-2", dbtest.AssignedTo("W1", "Asha", day),
		dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess), dbtest.Ranked(2))
	first := dbtest.Booking(t, client, "ORD-3", dbtest.AssignedTo("W1", "Asha", day),
		dbtest.Located(12.8, 77.5, enums.GeocodeStatusSuccess), dbtest.Ranked(1))
	dbtest.Booking(t, client, "ORD-4", dbtest.AssignedTo("W2", "Ravi", day))

	got, err := repo.ListByWorkerAndDate(context.Background(), "W1", day)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, unranked.ID, got[2].ID)
}

func TestRepositoryListSubmittedAndAssigned(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	dbtest.Booking(t, client, "ORD-1")
	dbtest.Booking(t, client, "ORD-2", dbtest.AssignedTo("W1", "Asha", day))

	submitted, err := repo.ListSubmitted(ctx)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, "ORD-1", submitted[0].OrderNo)

	assigned, err := repo.ListAssigned(ctx)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "ORD-2", assigned[0].OrderNo)
}

func TestRepositoryUpdateMissingRow(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	err := repo.Update(context.Background(), 99, map[string]any{"customer_name": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCompactRouteOrderClosesGaps(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess)

	a := dbtest.Booking(t, client, "ORD-1", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(1))
	b := dbtest.Booking(t, client, "ORD-2", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(3))
	c := dbtest.Booking(t, client, "ORD-3", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(5))

	changes, err := repo.CompactRouteOrder(context.Background(), "W1", day)
	require.NoError(t, err)
	assert.Equal(t, []RankChange{
		{BookingID: b.ID, OrderNo: "ORD-2", From: 3, To: 2},
		{BookingID: c.ID, OrderNo: "ORD-3", From: 5, To: 3},
	}, changes)

	assert.Equal(t, 1, *dbtest.Reload(t, client, a.ID).RouteOrder)
	assert.Equal(t, 2, *dbtest.Reload(t, client, b.ID).RouteOrder)
	assert.Equal(t, 3, *dbtest.Reload(t, client, c.ID).RouteOrder)

	again, err := repo.CompactRouteOrder(context.Background(), "W1", day)
	require.NoError(t, err)
	assert.Empty(t, again)
}
