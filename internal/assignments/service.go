package assignments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/instafit/fieldops-backend/internal/address"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/internal/workers"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/maps"
	"github.com/instafit/fieldops-backend/pkg/types"
)

const defaultReassignReason = "Manual reassignment"

// RouteBuilder rebuilds a worker-day after an automatic reassignment.
type RouteBuilder interface {
	BuildRoute(ctx context.Context, input routing.BuildInput) (*routing.BuildResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Assign(ctx context.Context, input AssignInput) (*AssignResult, error)
	Reassign(ctx context.Context, input ReassignInput) (*ReassignResult, error)
	UpdateCoordinatesManual(ctx context.Context, bookingID int64, lat, lng float64, actor types.Actor) (*LocationResult, error)
	UpdateAddressAndGeocode(ctx context.Context, bookingID int64, newAddress string, actor types.Actor) (*LocationResult, error)
	UpdateGeocodeFromPostcode(ctx context.Context, bookingID int64, postcode string, actor types.Actor) (*LocationResult, error)
}

type ServiceParams struct {
	Bookings bookings.Repository
	Workers  workers.Repository
	Audit    audit.Repository
	Tx       txRunner
	Locator  address.Service
	Router   RouteBuilder
	// GeocodeRatePerSec paces the post-assignment geocode pass; 0 disables pacing.
	GeocodeRatePerSec float64
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	bookings bookings.Repository
	workers  workers.Repository
	audit    audit.Repository
	tx       txRunner
	locator  address.Service
	router   RouteBuilder
	limiter  *rate.Limiter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Workers == nil {
		return nil, fmt.Errorf("workers repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Locator == nil {
		return nil, fmt.Errorf("address locator required")
	}
	limit := rate.Inf
	if params.GeocodeRatePerSec > 0 {
		limit = rate.Limit(params.GeocodeRatePerSec)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		bookings: params.Bookings,
		workers:  params.Workers,
		audit:    params.Audit,
		tx:       params.Tx,
		locator:  params.Locator,
		router:   params.Router,
		limiter:  rate.NewLimiter(limit, 1),
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*AssignResult, error) {
	ids := uniqueIDs(input.BookingIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one booking id is required")
	}
	if input.AssignedDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned date is required")
	}
	worker, err := workers.Resolve(ctx, s.workers, input.WorkerID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithWorkerID(ctx, worker.WorkerID)

	assigned := make([]models.Booking, 0, len(ids))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)
		auditor := s.audit.WithTx(tx)

		for _, id := range ids {
			booking, err := bookings.Load(ctx, repo, id)
			if err != nil {
				return err
			}
			previousWorker := booking.WorkerIDText()
			sameGroup := previousWorker == worker.WorkerID &&
				booking.AssignedDate != nil && booking.AssignedDate.Equal(input.AssignedDate)

			updates := map[string]any{
				"worker_id":         worker.WorkerID,
				"worker_name":       worker.Name,
				"assigned_date":     input.AssignedDate,
				"assignment_status": enums.AssignmentStatusAssigned,
			}
			if !sameGroup {
				updates["route_order"] = nil
			}
			if err := repo.Update(ctx, booking.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign booking")
			}
			if !sameGroup {
				if err := bookings.ReleaseRank(ctx, repo, auditor, booking, input.Actor); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compact route order")
				}
			}

			entry := audit.NewEntry(audit.Event{
				Booking:      booking,
				Action:       enums.AuditActionAssigned,
				Actor:        input.Actor,
				FieldChanged: "worker_id",
				OldValue:     previousWorker,
				NewValue:     worker.WorkerID,
				Notes:        fmt.Sprintf("assigned to %s for %s", worker.Name, input.AssignedDate),
			})
			if err := auditor.Create(ctx, &entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit entry")
			}

			fresh, err := bookings.Load(ctx, repo, booking.ID)
			if err != nil {
				return err
			}
			assigned = append(assigned, *fresh)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &AssignResult{
		Success:      true,
		WorkerID:     worker.WorkerID,
		WorkerName:   worker.Name,
		AssignedDate: input.AssignedDate,
		Assigned:     len(assigned),
		Outcomes:     make([]GeocodeOutcome, 0, len(assigned)),
	}
	for i := range assigned {
		outcome := s.geocodeAssigned(ctx, &assigned[i], input.Actor)
		if outcome.Success {
			result.Geocoded++
		} else {
			result.GeocodeFailed++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	result.Message = fmt.Sprintf("Assigned %d bookings to %s; %d geocoded, %d failed",
		result.Assigned, worker.Name, result.Geocoded, result.GeocodeFailed)
	return result, nil
}

// geocodeAssigned resolves one just-assigned booking and commits the result on
// its own. Errors are reported in the outcome, never returned.
func (s *service) geocodeAssigned(ctx context.Context, booking *models.Booking, actor types.Actor) GeocodeOutcome {
	ctx = s.logg.WithBookingID(ctx, booking.ID)
	outcome := GeocodeOutcome{BookingID: booking.ID, OrderNo: booking.OrderNo}

	var res maps.GeocodeResult
	if strings.TrimSpace(booking.AddressText()) == "" {
		res = maps.GeocodeResult{Reason: "address is empty"}
	} else if err := s.limiter.Wait(ctx); err != nil {
		outcome.GeocodeStatus = booking.GeocodeStatus
		outcome.Message = fmt.Sprintf("geocode skipped: %v", err)
		return outcome
	} else {
		res = s.locator.Locate(ctx, booking.AddressText())
	}

	updated, err := s.applyGeocode(ctx, booking, res, enums.GeocodeStatusSuccess, actor)
	if err != nil {
		s.logg.Error(ctx, "persist geocode result", err)
		outcome.GeocodeStatus = booking.GeocodeStatus
		outcome.Message = "failed to save geocode result"
		return outcome
	}
	if !res.Success {
		s.logg.Warn(s.logg.WithField(ctx, "reason", res.Reason), "geocode failed after assignment")
	}
	return outcomeFor(updated, res)
}

// applyGeocode writes a geocode result in its own transaction. Failure clears
// coordinates and rank; success sets coordinates with okStatus.
func (s *service) applyGeocode(ctx context.Context, booking *models.Booking, res maps.GeocodeResult, okStatus enums.GeocodeStatus, actor types.Actor) (*models.Booking, error) {
	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)
		auditor := s.audit.WithTx(tx)

		current, err := bookings.Load(ctx, repo, booking.ID)
		if err != nil {
			return err
		}
		updates, entry := geocodeUpdates(current, res, okStatus, actor)
		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return err
		}
		if !res.Success {
			if err := bookings.ReleaseRank(ctx, repo, auditor, current, actor); err != nil {
				return err
			}
		}
		if err := auditor.Create(ctx, &entry); err != nil {
			return err
		}
		updated, err = bookings.Load(ctx, repo, current.ID)
		return err
	})
	return updated, err
}

func geocodeUpdates(current *models.Booking, res maps.GeocodeResult, okStatus enums.GeocodeStatus, actor types.Actor) (map[string]any, models.AuditEntry) {
	event := audit.Event{
		Booking:      current,
		Action:       enums.AuditActionGeocoded,
		Actor:        actor,
		FieldChanged: "coordinates",
		OldValue:     coordinateText(current.Latitude, current.Longitude),
	}
	if res.Success {
		event.NewValue = res.Location.String()
		event.Notes = string(okStatus)
		return map[string]any{
			"latitude":       res.Location.Latitude,
			"longitude":      res.Location.Longitude,
			"geocode_status": okStatus,
		}, audit.NewEntry(event)
	}
	event.Notes = "geocode failed: " + res.Reason
	return map[string]any{
		"latitude":       nil,
		"longitude":      nil,
		"geocode_status": enums.GeocodeStatusFailed,
		"route_order":    nil,
	}, audit.NewEntry(event)
}

func (s *service) Reassign(ctx context.Context, input ReassignInput) (*ReassignResult, error) {
	option := input.RoutingOption
	if option == "" {
		option = enums.RoutingOptionManual
	}
	if !option.IsValid() {
		return nil, pkgerrors.Validationf("invalid routing option %q", input.RoutingOption)
	}
	if input.AssignedDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned date is required")
	}
	postcode := strings.TrimSpace(input.StartPostcode)
	if option == enums.RoutingOptionAuto || postcode != "" {
		if err := address.ValidatePostcode(postcode); err != nil {
			return nil, err
		}
	}
	worker, err := workers.Resolve(ctx, s.workers, input.WorkerID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Notes)
	if reason == "" {
		reason = defaultReassignReason
	}

	var booking *models.Booking
	var oldWorkerID string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)
		auditor := s.audit.WithTx(tx)

		current, err := bookings.Load(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		oldWorkerID = current.WorkerIDText()
		oldStatus := current.AssignmentStatus

		note := types.NoteEntry{
			At:     s.now(),
			Author: input.Actor.Name,
			Kind:   types.NoteKindReassignment,
			Text:   reassignmentNote(input.Actor.Name, current, oldStatus, worker, input.AssignedDate, reason),
		}
		updates := map[string]any{
			"worker_id":         worker.WorkerID,
			"worker_name":       worker.Name,
			"assigned_date":     input.AssignedDate,
			"assignment_status": enums.AssignmentStatusAssigned,
			"route_order":       nil,
			"notes":             current.Notes.Append(note),
		}
		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reassign booking")
		}
		if err := bookings.ReleaseRank(ctx, repo, auditor, current, input.Actor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compact route order")
		}

		entry := audit.NewEntry(audit.Event{
			Booking:      current,
			Action:       enums.AuditActionReassigned,
			Actor:        input.Actor,
			FieldChanged: "worker_id",
			OldValue:     oldWorkerID,
			NewValue:     worker.WorkerID,
			Notes:        reason,
		})
		if err := auditor.Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit entry")
		}

		booking, err = bookings.Load(ctx, repo, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &ReassignResult{
		Success:     true,
		Message:     fmt.Sprintf("Booking %s reassigned to %s", booking.OrderNo, worker.Name),
		Booking:     booking,
		OldWorkerID: oldWorkerID,
		NewWorkerID: worker.WorkerID,
	}
	if option != enums.RoutingOptionAuto {
		return result, nil
	}

	if !booking.HasCoordinates() {
		outcome := s.geocodeAssigned(ctx, booking, input.Actor)
		result.Geocode = &outcome
	}
	if s.router == nil {
		result.RouteMessage = "route builder not configured"
		return result, nil
	}
	route, err := s.router.BuildRoute(ctx, routing.BuildInput{
		WorkerID:      worker.WorkerID,
		Date:          input.AssignedDate,
		StartPostcode: postcode,
		Actor:         input.Actor,
	})
	if err != nil {
		s.logg.Error(s.logg.WithWorkerID(ctx, worker.WorkerID), "route build after reassignment", err)
		result.RouteMessage = "route build failed: " + err.Error()
	} else {
		result.Route = route
		if !route.Success {
			result.RouteMessage = route.Message
		}
	}
	if refreshed, err := s.bookings.FindByID(ctx, booking.ID); err == nil {
		result.Booking = refreshed
	}
	return result, nil
}

func reassignmentNote(actor string, current *models.Booking, oldStatus enums.AssignmentStatus, worker *models.Worker, date types.Date, reason string) string {
	from := "unassigned"
	if current.WorkerID != nil {
		name := ""
		if current.WorkerName != nil {
			name = *current.WorkerName
		}
		from = fmt.Sprintf("%s (%s)", name, *current.WorkerID)
	}
	if actor == "" {
		actor = types.SystemActor("").Name
	}
	return fmt.Sprintf("REASSIGNED by %s\nFrom: %s [%s]\nTo: %s (%s) on %s\nReason: %s",
		actor, from, oldStatus, worker.Name, worker.WorkerID, date, reason)
}

func (s *service) UpdateCoordinatesManual(ctx context.Context, bookingID int64, lat, lng float64, actor types.Actor) (*LocationResult, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, pkgerrors.Validationf("coordinates out of range: %f,%f", lat, lng)
	}
	if _, err := bookings.Load(ctx, s.bookings, bookingID); err != nil {
		return nil, err
	}
	res := maps.GeocodeResult{Success: true, Location: maps.LatLng{Latitude: lat, Longitude: lng}}
	updated, err := s.applyGeocode(ctx, &models.Booking{ID: bookingID}, res, enums.GeocodeStatusManual, actor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save coordinates")
	}
	return &LocationResult{GeocodeOutcome: outcomeFor(updated, res), Booking: updated}, nil
}

func (s *service) UpdateAddressAndGeocode(ctx context.Context, bookingID int64, newAddress string, actor types.Actor) (*LocationResult, error) {
	newAddress = strings.TrimSpace(newAddress)
	if newAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if _, err := bookings.Load(ctx, s.bookings, bookingID); err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "geocode cancelled")
	}
	res := s.locator.Locate(ctx, newAddress)

	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)
		auditor := s.audit.WithTx(tx)

		current, err := bookings.Load(ctx, repo, bookingID)
		if err != nil {
			return err
		}
		updates, _ := geocodeUpdates(current, res, enums.GeocodeStatusSuccess, actor)
		updates["address"] = newAddress

		diff := audit.Diff{}
		diff.Add("address", current.AddressText(), newAddress)
		diff.Add("geocode_status", current.GeocodeStatus.String(), string(statusFor(res, enums.GeocodeStatusSuccess)))
		diff.Add("coordinates", coordinateText(current.Latitude, current.Longitude), newCoordinateText(res))

		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return err
		}
		if !res.Success {
			if err := bookings.ReleaseRank(ctx, repo, auditor, current, actor); err != nil {
				return err
			}
		}
		notes := ""
		if !res.Success {
			notes = "geocode failed: " + res.Reason
		}
		entry := audit.NewEntry(audit.Event{
			Booking:      current,
			Action:       enums.AuditActionUpdated,
			Actor:        actor,
			FieldChanged: "address",
			NewValue:     diff.JSON(),
			Notes:        notes,
		})
		if err := auditor.Create(ctx, &entry); err != nil {
			return err
		}
		updated, err = bookings.Load(ctx, repo, current.ID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return &LocationResult{GeocodeOutcome: outcomeFor(updated, res), Booking: updated}, nil
}

func (s *service) UpdateGeocodeFromPostcode(ctx context.Context, bookingID int64, postcode string, actor types.Actor) (*LocationResult, error) {
	if err := address.ValidatePostcode(postcode); err != nil {
		return nil, err
	}
	current, err := bookings.Load(ctx, s.bookings, bookingID)
	if err != nil {
		return nil, err
	}

	res := s.locator.LocatePostcode(ctx, postcode)
	if !res.Success {
		outcome := outcomeFor(current, res)
		return &LocationResult{GeocodeOutcome: outcome, Booking: current}, nil
	}

	updated, err := s.applyGeocode(ctx, current, res, enums.GeocodeStatusSuccessManual, actor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save postcode location")
	}
	return &LocationResult{GeocodeOutcome: outcomeFor(updated, res), Booking: updated}, nil
}

func outcomeFor(b *models.Booking, res maps.GeocodeResult) GeocodeOutcome {
	outcome := GeocodeOutcome{
		BookingID:     b.ID,
		OrderNo:       b.OrderNo,
		Success:       res.Success,
		GeocodeStatus: b.GeocodeStatus,
		Latitude:      b.Latitude,
		Longitude:     b.Longitude,
	}
	if res.Success {
		outcome.Message = "Location updated"
		if res.FormattedAddress != "" {
			outcome.Message = "Location updated: " + res.FormattedAddress
		}
	} else {
		outcome.Message = res.Reason
	}
	return outcome
}

func statusFor(res maps.GeocodeResult, okStatus enums.GeocodeStatus) enums.GeocodeStatus {
	if res.Success {
		return okStatus
	}
	return enums.GeocodeStatusFailed
}

func newCoordinateText(res maps.GeocodeResult) string {
	if !res.Success {
		return ""
	}
	return res.Location.String()
}

func coordinateText(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return strconv.FormatFloat(*lat, 'f', 6, 64) + "," + strconv.FormatFloat(*lng, 'f', 6, 64)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
