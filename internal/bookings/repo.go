package bookings

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	orderByRank         = "route_order ASC NULLS LAST, id ASC"
	orderByAssignedDate = "assigned_date DESC NULLS LAST, route_order ASC NULLS LAST, id ASC"
	orderByNewest       = "created_at DESC, id DESC"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) FindByOrderNo(ctx context.Context, orderNo string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, orderByNewest, "")
}

func (r *repository) ListByUpstreamStatus(ctx context.Context, status string) ([]models.Booking, error) {
	return r.list(ctx, orderByNewest, "status = ?", status)
}

func (r *repository) ListByAssignmentStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Booking, error) {
	return r.list(ctx, orderByNewest, "assignment_status = ?", status)
}

func (r *repository) ListByWorker(ctx context.Context, workerID string) ([]models.Booking, error) {
	return r.list(ctx, orderByAssignedDate, "worker_id = ?", workerID)
}

func (r *repository) ListByWorkerAndDate(ctx context.Context, workerID string, date types.Date) ([]models.Booking, error) {
	return r.list(ctx, orderByRank, "worker_id = ? AND assigned_date = ?", workerID, date)
}

func (r *repository) ListAssigned(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, orderByAssignedDate, "worker_id IS NOT NULL")
}

func (r *repository) ListSubmitted(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, orderByNewest, "assignment_status = ?", enums.AssignmentStatusSubmitted)
}

func (r *repository) list(ctx context.Context, order string, where string, args ...any) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if where != "" {
		query = query.Where(where, args...)
	}
	var bookings []models.Booking
	if err := query.Order(order).Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CompactRouteOrder renumbers the ranked rows of a worker-day to 1..k,
// preserving their relative order.
func (r *repository) CompactRouteOrder(ctx context.Context, workerID string, date types.Date) ([]RankChange, error) {
	var ranked []models.Booking
	err := r.db.WithContext(ctx).
		Select("id", "order_no", "route_order").
		Where("worker_id = ? AND assigned_date = ? AND route_order IS NOT NULL", workerID, date).
		Order("route_order ASC, id ASC").
		Find(&ranked).Error
	if err != nil {
		return nil, err
	}

	var changes []RankChange
	for i, b := range ranked {
		want := i + 1
		if *b.RouteOrder == want {
			continue
		}
		if err := r.db.WithContext(ctx).Model(&models.Booking{}).
			Where("id = ?", b.ID).
			Update("route_order", want).Error; err != nil {
			return nil, err
		}
		changes = append(changes, RankChange{BookingID: b.ID, OrderNo: b.OrderNo, From: *b.RouteOrder, To: want})
	}
	return changes, nil
}
