package audit

import (
	"context"
	"time"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists and queries the append-only audit log. There is no
// update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditEntry) error
	CreateBatch(ctx context.Context, entries []models.AuditEntry) error
	ListByBooking(ctx context.Context, bookingID int64) ([]models.AuditEntry, error)
	Search(ctx context.Context, filters Filters, params pagination.Params) (*List, error)
}

// Filters narrows an audit search. Zero values are ignored; To is inclusive of the whole day.
type Filters struct {
	BookingID *int64
	OrderNo   string
	Actor     string
	Action    *enums.AuditAction
	From      *time.Time
	To        *time.Time
}

// List is one page of audit entries, newest first.
type List struct {
	Entries    []models.AuditEntry `json:"entries"`
	NextCursor string              `json:"nextCursor,omitempty"`
}
