package bookings

import (
	"context"
	"strconv"

	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

const fieldRouteOrder = "route_order"

// RankedGroup returns the worker-day a ranked booking currently belongs to.
func RankedGroup(b *models.Booking) (string, types.Date, bool) {
	if b == nil || b.RouteOrder == nil || b.WorkerID == nil || b.AssignedDate == nil {
		return "", types.Date{}, false
	}
	return *b.WorkerID, *b.AssignedDate, true
}

// ReleaseRank closes the gap a booking leaves in its former worker-day after
// its route_order has been cleared, and logs each renumbered sibling. The
// repo and auditor must share the caller's transaction.
func ReleaseRank(ctx context.Context, repo Repository, auditor audit.Repository, former *models.Booking, actor types.Actor) error {
	workerID, date, ok := RankedGroup(former)
	if !ok {
		return nil
	}
	changes, err := repo.CompactRouteOrder(ctx, workerID, date)
	if err != nil {
		return err
	}
	return auditor.CreateBatch(ctx, RankChangeEntries(changes, actor, "route compacted"))
}

// RankChangeEntries renders rank rewrites as UPDATED audit rows.
func RankChangeEntries(changes []RankChange, actor types.Actor, note string) []models.AuditEntry {
	entries := make([]models.AuditEntry, 0, len(changes))
	for _, change := range changes {
		entries = append(entries, audit.NewEntry(audit.Event{
			Booking:      &models.Booking{ID: change.BookingID, OrderNo: change.OrderNo},
			Action:       enums.AuditActionUpdated,
			Actor:        actor,
			FieldChanged: fieldRouteOrder,
			OldValue:     rankText(change.From),
			NewValue:     rankText(change.To),
			Notes:        note,
		}))
	}
	return entries
}

func rankText(rank int) string {
	if rank <= 0 {
		return "null"
	}
	return strconv.Itoa(rank)
}
