package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/instafit/fieldops-backend/pkg/db/models"
)

// Repository persists login accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.UserAccount) error
	FindByPhone(ctx context.Context, phone string) (*models.UserAccount, error)
	FindByWorkerID(ctx context.Context, workerID string) (*models.UserAccount, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, account *models.UserAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByWorkerID(ctx context.Context, workerID string) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := r.db.WithContext(ctx).Where("worker_id = ?", workerID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserAccount{}).Where("phone_number = ?", phone).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes last_login_at without bumping updated_at.
func (r *repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserAccount{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
