package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/dbtest"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/types"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(client.DB()),
		Audit: audit.NewRepository(client.DB()),
		Tx:    client,
		Now:   func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, client
}

func strPtr(s string) *string { return &s }

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestGetMissingBooking(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateWritesDiffAndNote(t *testing.T) {
	svc, client := newTestService(t)
	booking := dbtest.Booking(t, client, "ORD-1", dbtest.WithCustomer("Meera"))
	ops := types.Actor{Name: "ops", IPAddress: "10.1.1.1"}

	updated, err := svc.Update(context.Background(), UpdateInput{
		BookingID: booking.ID,
		Patch:     Patch{CustomerName: strPtr("Meera K"), Notes: strPtr("call before arriving")},
		Actor:     ops,
	})
	require.NoError(t, err)
	assert.Equal(t, "Meera K", *updated.CustomerName)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "\n[2025-03-10 09:30:00] call before arriving", updated.Notes.Render())

	history, err := svc.History(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.AuditActionUpdated, history[0].ActionType)
	assert.Equal(t, "customer_name,notes", *history[0].FieldChanged)
	assert.Contains(t, *history[0].NewValue, "Meera → Meera K")
}

func TestUpdateWithoutChangesIsNoop(t *testing.T) {
	svc, client := newTestService(t)
	booking := dbtest.Booking(t, client, "ORD-1", dbtest.WithCustomer("Meera"))

	_, err := svc.Update(context.Background(), UpdateInput{
		BookingID: booking.ID,
		Patch:     Patch{CustomerName: strPtr("Meera")},
		Actor:     types.Actor{Name: "ops"},
	})
	require.NoError(t, err)
	assert.Empty(t, dbtest.AuditActions(t, client, booking.ID))
}

func TestUpdateAddressResetsLocationAndCompactsGroup(t *testing.T) {
	svc, client := newTestService(t)
	located := dbtest.Located(12.9, 77.6, enums.GeocodeStatusSuccess)
	moved := dbtest.Booking(t, client, "ORD-1", dbtest.WithAddress("old street-560001"),
		dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(1))
	sibling := dbtest.Booking(t, client, "ORD-2", dbtest.AssignedTo("W1", "Asha", day), located, dbtest.Ranked(2))

	updated, err := svc.Update(context.Background(), UpdateInput{
		BookingID: moved.ID,
		Patch:     Patch{Address: strPtr("new street-560002")},
		Actor:     types.Actor{Name: "ops"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.GeocodeStatusPending, updated.GeocodeStatus)
	assert.Nil(t, updated.Latitude)
	assert.Nil(t, updated.RouteOrder)
	assert.Equal(t, 1, *dbtest.Reload(t, client, sibling.ID).RouteOrder)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionUpdated}, dbtest.AuditActions(t, client, sibling.ID))
}

func TestUpdateRejectsBlankAddress(t *testing.T) {
	svc, client := newTestService(t)
	booking := dbtest.Booking(t, client, "ORD-1")

	_, err := svc.Update(context.Background(), UpdateInput{
		BookingID: booking.ID,
		Patch:     Patch{Address: strPtr("  ")},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSubmitStampsOperator(t *testing.T) {
	svc, client := newTestService(t)
	booking := dbtest.Booking(t, client, "ORD-1")

	updated, err := svc.Submit(context.Background(), booking.ID, types.Actor{Name: "ops"})
	require.NoError(t, err)
	assert.Equal(t, UpstreamStatusSubmitted, *updated.Status)
	assert.Equal(t, "ops", *updated.SubmittedBy)
	require.NotNil(t, updated.SubmittedAt)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionSubmitted}, dbtest.AuditActions(t, client, booking.ID))
}

func TestUpdateJobStatusTransitions(t *testing.T) {
	svc, client := newTestService(t)
	booking := dbtest.Booking(t, client, "ORD-1", dbtest.AssignedTo("W1", "Asha", day))
	worker := types.Actor{Name: "W1"}
	ctx := context.Background()

	_, err := svc.UpdateJobStatus(ctx, JobStatusInput{
		BookingID: booking.ID, WorkerID: "W2", Status: enums.AssignmentStatusInProgress, Actor: worker,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	updated, err := svc.UpdateJobStatus(ctx, JobStatusInput{
		BookingID: booking.ID, WorkerID: "W1", Status: enums.AssignmentStatusInProgress, Notes: "on site", Actor: worker,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusInProgress, updated.AssignmentStatus)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, types.NoteKindStatus, updated.Notes[0].Kind)

	_, err = svc.UpdateJobStatus(ctx, JobStatusInput{
		BookingID: booking.ID, WorkerID: "W1", Status: enums.AssignmentStatusAssigned, Actor: worker,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateJobStatus(ctx, JobStatusInput{
		BookingID: booking.ID, WorkerID: "W1", Status: enums.AssignmentStatusInProgress, Actor: worker,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateJobStatus(ctx, JobStatusInput{
		BookingID: booking.ID, WorkerID: "W1", Status: enums.AssignmentStatusCompleted, Actor: worker,
	})
	require.NoError(t, err)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionUpdated, enums.AuditActionUpdated},
		dbtest.AuditActions(t, client, booking.ID))
}
