package workers

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, worker *models.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *repository) FindByWorkerID(ctx context.Context, workerID string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).Where("worker_id = ?", workerID).First(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.Worker, error) {
	query := r.db.WithContext(ctx).Model(&models.Worker{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var workers []models.Worker
	if err := query.Order("name ASC, worker_id ASC").Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *repository) Update(ctx context.Context, workerID string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Worker{}).Where("worker_id = ?", workerID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
