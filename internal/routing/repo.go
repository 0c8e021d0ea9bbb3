package routing

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DayRouteRepository stores the latest route summary per worker-day.
type DayRouteRepository interface {
	WithTx(tx *gorm.DB) DayRouteRepository
	Upsert(ctx context.Context, route *models.DayRoute) error
	Find(ctx context.Context, workerID string, date types.Date) (*models.DayRoute, error)
}

type dayRouteRepository struct {
	db *gorm.DB
}

func NewDayRouteRepository(db *gorm.DB) DayRouteRepository {
	return &dayRouteRepository{db: db}
}

func (r *dayRouteRepository) WithTx(tx *gorm.DB) DayRouteRepository {
	if tx == nil {
		return r
	}
	return &dayRouteRepository{db: tx}
}

func (r *dayRouteRepository) Upsert(ctx context.Context, route *models.DayRoute) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "worker_id"}, {Name: "route_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_location",
			"start_latitude",
			"start_longitude",
			"total_distance_km",
			"total_duration_minutes",
			"order_sequence",
			"map_url",
			"active",
			"created_by",
			"updated_at",
		}),
	}).Create(route).Error
}

func (r *dayRouteRepository) Find(ctx context.Context, workerID string, date types.Date) (*models.DayRoute, error) {
	var route models.DayRoute
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND route_date = ?", workerID, date).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}
