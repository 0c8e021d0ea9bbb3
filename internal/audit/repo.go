package audit

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateBatch(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListByBooking(ctx context.Context, bookingID int64) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Search(ctx context.Context, filters Filters, params pagination.Params) (*List, error) {
	page, err := params.Scope()
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})
	if filters.BookingID != nil {
		query = query.Where("booking_id = ?", *filters.BookingID)
	}
	if filters.OrderNo != "" {
		query = query.Where("order_no = ?", filters.OrderNo)
	}
	if filters.Actor != "" {
		query = query.Where("changed_by = ?", filters.Actor)
	}
	if filters.Action != nil {
		query = query.Where("action_type = ?", *filters.Action)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", filters.To.AddDate(0, 0, 1))
	}
	var entries []models.AuditEntry
	if err := query.Scopes(page).Find(&entries).Error; err != nil {
		return nil, err
	}

	list := &List{}
	list.Entries, list.NextCursor = pagination.Page(entries, params.Limit,
		func(e models.AuditEntry) int64 { return e.ID })
	return list, nil
}
