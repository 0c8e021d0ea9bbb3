package workers

import (
	"context"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the worker directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, worker *models.Worker) error
	FindByWorkerID(ctx context.Context, workerID string) (*models.Worker, error)
	List(ctx context.Context, activeOnly bool) ([]models.Worker, error)
	Update(ctx context.Context, workerID string, updates map[string]any) error
}
