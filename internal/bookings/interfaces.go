package bookings

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
	"gorm.io/gorm"
)

// Repository is the authoritative store for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	ListByUpstreamStatus(ctx context.Context, status string) ([]models.Booking, error)
	ListByAssignmentStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Booking, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Booking, error)
	ListByWorkerAndDate(ctx context.Context, workerID string, date types.Date) ([]models.Booking, error)
	ListAssigned(ctx context.Context) ([]models.Booking, error)
	ListSubmitted(ctx context.Context) ([]models.Booking, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	CompactRouteOrder(ctx context.Context, workerID string, date types.Date) ([]RankChange, error)
}

// RankChange describes a route_order rewrite performed by compaction.
type RankChange struct {
	BookingID int64
	OrderNo   string
	From      int
	To        int
}
