package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/metrics"
	"github.com/instafit/fieldops-backend/pkg/types"
	"github.com/instafit/fieldops-backend/pkg/upstream"
	"gorm.io/gorm"
)

// Source returns the raw upstream booking array.
type Source interface {
	FetchRaw(ctx context.Context) ([]json.RawMessage, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FetchResult summarises one import pass. Bookings carries the current
// database contents, newest first.
type FetchResult struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Fetched  int              `json:"fetched"`
	New      int              `json:"new"`
	Skipped  int              `json:"skipped"`
	Failed   int              `json:"failed"`
	Bookings []models.Booking `json:"bookings"`
}

type FetcherParams struct {
	Source   Source
	Bookings bookings.Repository
	Markers  MarkerRepository
	Audit    audit.Repository
	Tx       txRunner
	Logger   *logger.Logger
	Metrics  *metrics.IngestMetrics
	Now      func() time.Time
}

// Fetcher imports upstream bookings idempotently.
type Fetcher struct {
	source   Source
	bookings bookings.Repository
	markers  MarkerRepository
	audit    audit.Repository
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.IngestMetrics
	now      func() time.Time
}

func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Markers == nil {
		return nil, fmt.Errorf("marker repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		source:   params.Source,
		bookings: params.Bookings,
		markers:  params.Markers,
		audit:    params.Audit,
		tx:       params.Tx,
		logg:     logg,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Fetch pulls the upstream snapshot and imports unseen order numbers. An
// upstream failure is reported in the result, not as an error; only a failure
// to read back the store is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, actor types.Actor) (*FetchResult, error) {
	if actor.Name == "" {
		actor = types.SystemActor("")
	}
	result := &FetchResult{Success: true}

	var raws []json.RawMessage
	var err error
	if f.source == nil {
		err = pkgerrors.New(pkgerrors.CodeDependency, "upstream bookings source not configured")
	} else {
		raws, err = f.source.FetchRaw(ctx)
	}
	if err != nil {
		f.logg.Error(ctx, "upstream fetch failed", err)
		result.Success = false
		result.Message = fmt.Sprintf("Failed to fetch bookings from upstream: %v", err)
	} else {
		result.Fetched = len(raws)
		for _, raw := range raws {
			switch f.importOne(ctx, raw, actor) {
			case outcomeNew:
				result.New++
			case outcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
		}
		result.Message = fmt.Sprintf("Fetched %d bookings: %d new, %d skipped, %d failed",
			result.Fetched, result.New, result.Skipped, result.Failed)
		f.logg.Info(f.logg.WithFields(ctx, map[string]any{
			"fetched": result.Fetched,
			"new":     result.New,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		}), "upstream fetch complete")
	}
	f.metrics.ObservePass(result.Success, result.New, result.Skipped, result.Failed)

	current, err := f.bookings.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bookings")
	}
	result.Bookings = current
	return result, nil
}

func (f *Fetcher) importOne(ctx context.Context, raw json.RawMessage, actor types.Actor) outcome {
	rec, err := upstream.DecodeRecord(raw)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "skipping undecodable upstream record")
		return outcomeFailed
	}
	recCtx := f.logg.WithOrderNo(ctx, rec.OrderNo)
	now := f.now()

	seen, err := f.markers.Has(ctx, rec.OrderNo)
	if err != nil {
		f.logg.Error(recCtx, "check ingest marker", err)
		return outcomeFailed
	}
	if seen {
		if err := f.markers.Touch(ctx, rec.OrderNo, now); err != nil {
			f.logg.Warn(f.logg.WithField(recCtx, "error", err.Error()), "touch ingest marker failed")
		}
		return outcomeSkipped
	}

	booking, err := toBooking(rec)
	if err != nil {
		f.logg.Warn(f.logg.WithField(recCtx, "error", err.Error()), "skipping malformed upstream record")
		return outcomeFailed
	}

	err = f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := f.bookings.WithTx(tx).Create(ctx, booking); err != nil {
			return err
		}
		if err := f.markers.WithTx(tx).Record(ctx, booking.OrderNo, booking.ID, actor.Name, now); err != nil {
			return err
		}
		entry := audit.NewEntry(audit.Event{
			Booking: booking,
			Action:  enums.AuditActionFetched,
			Actor:   actor,
			Notes:   "imported from upstream",
		})
		return f.audit.WithTx(tx).Create(ctx, &entry)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			f.logg.Info(recCtx, "order already stored; skipping")
			f.adoptExisting(recCtx, rec.OrderNo, actor, now)
			return outcomeSkipped
		}
		f.logg.Error(recCtx, "import upstream record", err)
		return outcomeFailed
	}
	return outcomeNew
}

// adoptExisting records a marker for a booking that is stored without one so
// later fetches take the marker fast path.
func (f *Fetcher) adoptExisting(ctx context.Context, orderNo string, actor types.Actor, now time.Time) {
	existing, err := f.bookings.FindByOrderNo(ctx, orderNo)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "load stored booking for ingest marker failed")
		return
	}
	if err := f.markers.Record(ctx, orderNo, existing.ID, actor.Name, now); err != nil && !db.IsUniqueViolation(err, "") {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "record ingest marker failed")
	}
}
