package bookings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/types"
	"gorm.io/gorm"
)

// UpstreamStatusSubmitted is written to the upstream status column on submit.
const UpstreamStatusSubmitted = "Submitted"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers operator maintenance of individual bookings and the
// worker-side job status flow.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Booking, error)
	Update(ctx context.Context, input UpdateInput) (*models.Booking, error)
	Submit(ctx context.Context, id int64, actor types.Actor) (*models.Booking, error)
	History(ctx context.Context, id int64) ([]models.AuditEntry, error)
	UpdateJobStatus(ctx context.Context, input JobStatusInput) (*models.Booking, error)
}

// Patch lists editable booking fields. Nil means unchanged.
type Patch struct {
	CustomerName   *string
	CustomerMobile *string
	Address        *string
	BookingDate    *types.Date
	BookingTime    *types.TimeOfDay
	EmployeeName   *string
	EmployeePhone  *string
	Notes          *string
}

type UpdateInput struct {
	BookingID int64
	Patch     Patch
	Actor     types.Actor
}

type JobStatusInput struct {
	BookingID int64
	WorkerID  string
	Status    enums.AssignmentStatus
	Notes     string
	Actor     types.Actor
}

// ServiceParams bundles the dependencies required to build a bookings service.
type ServiceParams struct {
	Repo  Repository
	Audit audit.Repository
	Tx    txRunner
	Now   func() time.Time
}

type service struct {
	repo  Repository
	audit audit.Repository
	tx    txRunner
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, audit: params.Audit, tx: params.Tx, now: now}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return Load(ctx, s.repo, id)
}

// Load fetches a booking and maps a miss to NOT_FOUND.
func Load(ctx context.Context, repo Repository, id int64) (*models.Booking, error) {
	booking, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFoundf("booking %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	return booking, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Booking, error) {
	if input.Patch.Address != nil && strings.TrimSpace(*input.Patch.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address cannot be empty")
	}

	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		auditor := s.audit.WithTx(tx)

		booking, err := Load(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}

		updates, diff := patchUpdates(booking, input.Patch)
		if note := strings.TrimSpace(deref(input.Patch.Notes)); note != "" {
			updates["notes"] = booking.Notes.Append(types.NoteEntry{
				At: s.now(), Author: input.Actor.Name, Kind: types.NoteKindOperator, Text: note,
			})
			diff["notes"] = audit.Change("", note)
		}
		if diff.Empty() {
			updated = booking
			return nil
		}

		_, addressChanged := diff["address"]
		if addressChanged {
			// New address invalidates any resolved location and rank.
			updates["latitude"] = nil
			updates["longitude"] = nil
			updates["geocode_status"] = enums.GeocodeStatusPending
			updates["route_order"] = nil
		}

		if err := repo.Update(ctx, booking.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update booking")
		}
		if addressChanged {
			if err := ReleaseRank(ctx, repo, auditor, booking, input.Actor); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compact route order")
			}
		}

		entry := audit.NewEntry(audit.Event{
			Booking:      booking,
			Action:       enums.AuditActionUpdated,
			Actor:        input.Actor,
			FieldChanged: diffFields(diff),
			NewValue:     diff.JSON(),
		})
		if err := auditor.Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit entry")
		}

		updated, err = Load(ctx, repo, booking.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Submit(ctx context.Context, id int64, actor types.Actor) (*models.Booking, error) {
	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := Load(ctx, repo, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := repo.Update(ctx, id, map[string]any{
			"status":       UpstreamStatusSubmitted,
			"submitted_by": actor.Name,
			"submitted_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submit booking")
		}

		entry := audit.NewEntry(audit.Event{
			Booking:      booking,
			Action:       enums.AuditActionSubmitted,
			Actor:        actor,
			FieldChanged: "status",
			OldValue:     deref(booking.Status),
			NewValue:     UpstreamStatusSubmitted,
		})
		if err := s.audit.WithTx(tx).Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit entry")
		}

		updated, err = Load(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) History(ctx context.Context, id int64) ([]models.AuditEntry, error) {
	if _, err := Load(ctx, s.repo, id); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByBooking(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load audit history")
	}
	return entries, nil
}

func (s *service) UpdateJobStatus(ctx context.Context, input JobStatusInput) (*models.Booking, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Validationf("unknown status %q", input.Status)
	}
	if strings.TrimSpace(input.WorkerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "worker identity missing")
	}
	notes := strings.TrimSpace(input.Notes)

	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := Load(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		if booking.WorkerIDText() != input.WorkerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking is not assigned to this worker")
		}

		current := booking.AssignmentStatus
		sameStatus := current == input.Status
		if sameStatus && notes == "" {
			return pkgerrors.Validationf("booking is already %s", current)
		}
		if !sameStatus && !current.CanTransitionTo(input.Status) {
			return pkgerrors.StateConflictf("cannot move job from %s to %s", current, input.Status).
				WithDetails(map[string]any{"from": current, "to": input.Status})
		}

		updates := map[string]any{}
		if !sameStatus {
			updates["assignment_status"] = input.Status
		}
		if notes != "" {
			updates["notes"] = booking.Notes.Append(types.NoteEntry{
				At: s.now(), Author: input.Actor.Name, Kind: types.NoteKindStatus, Text: notes,
			})
		}
		if err := repo.Update(ctx, booking.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update job status")
		}

		entry := audit.NewEntry(audit.Event{
			Booking:      booking,
			Action:       enums.AuditActionUpdated,
			Actor:        input.Actor,
			FieldChanged: "assignment_status",
			OldValue:     current.String(),
			NewValue:     input.Status.String(),
			Notes:        notes,
		})
		if err := s.audit.WithTx(tx).Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit entry")
		}

		updated, err = Load(ctx, repo, booking.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func patchUpdates(b *models.Booking, p Patch) (map[string]any, audit.Diff) {
	updates := map[string]any{}
	diff := audit.Diff{}

	setString := func(column string, current *string, next *string) {
		if next == nil {
			return
		}
		value := strings.TrimSpace(*next)
		if value == deref(current) {
			return
		}
		updates[column] = value
		diff.Add(column, deref(current), value)
	}

	setString("customer_name", b.CustomerName, p.CustomerName)
	setString("customer_mobile", b.CustomerMobile, p.CustomerMobile)
	setString("address", b.Address, p.Address)
	setString("employee_name", b.EmployeeName, p.EmployeeName)
	setString("employee_phone", b.EmployeePhone, p.EmployeePhone)

	if p.BookingDate != nil && (b.BookingDate == nil || !b.BookingDate.Equal(*p.BookingDate)) {
		updates["booking_date"] = *p.BookingDate
		diff.Add("booking_date", dateText(b.BookingDate), p.BookingDate.String())
	}
	if p.BookingTime != nil && (b.BookingTime == nil || *b.BookingTime != *p.BookingTime) {
		updates["booking_time"] = *p.BookingTime
		old := ""
		if b.BookingTime != nil {
			old = b.BookingTime.String()
		}
		diff.Add("booking_time", old, p.BookingTime.String())
	}
	return updates, diff
}

func diffFields(diff audit.Diff) string {
	fields := make([]string, 0, len(diff))
	for field := range diff {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

func dateText(d *types.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
