package ingest

import (
	"context"
	"time"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"gorm.io/gorm"
)

// MarkerRepository tracks which upstream order numbers were imported. Markers
// are never deleted.
type MarkerRepository interface {
	WithTx(tx *gorm.DB) MarkerRepository
	Has(ctx context.Context, orderNo string) (bool, error)
	Record(ctx context.Context, orderNo string, bookingID int64, actor string, at time.Time) error
	Touch(ctx context.Context, orderNo string, at time.Time) error
}

type markerRepository struct {
	db *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) MarkerRepository {
	return &markerRepository{db: db}
}

func (r *markerRepository) WithTx(tx *gorm.DB) MarkerRepository {
	if tx == nil {
		return r
	}
	return &markerRepository{db: tx}
}

func (r *markerRepository) Has(ctx context.Context, orderNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.IngestMarker{}).Where("order_no = ?", orderNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *markerRepository) Record(ctx context.Context, orderNo string, bookingID int64, actor string, at time.Time) error {
	marker := models.IngestMarker{
		OrderNo:        orderNo,
		BookingID:      bookingID,
		FirstFetchedAt: at,
		LastFetchedAt:  at,
		FetchCount:     1,
		FetchedBy:      actor,
	}
	return r.db.WithContext(ctx).Create(&marker).Error
}

func (r *markerRepository) Touch(ctx context.Context, orderNo string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.IngestMarker{}).
		Where("order_no = ?", orderNo).
		Updates(map[string]any{
			"last_fetched_at": at,
			"fetch_count":     gorm.Expr("fetch_count + 1"),
		}).Error
}
