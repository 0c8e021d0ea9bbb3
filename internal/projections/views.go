package projections

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/types"
)

// BookingView is the API shape of a booking. Notes are rendered to flat text.
type BookingView struct {
	ID               int64                  `json:"id"`
	OrderNo          string                 `json:"orderNo"`
	UserID           *string                `json:"userId,omitempty"`
	CustomerName     *string                `json:"customerName,omitempty"`
	CustomerMobile   *string                `json:"customerMobile,omitempty"`
	ServiceName      *string                `json:"serviceName,omitempty"`
	ServiceID        *int64                 `json:"serviceId,omitempty"`
	ServiceTypes     *string                `json:"serviceTypes,omitempty"`
	Status           *string                `json:"status,omitempty"`
	PaymentID        *string                `json:"paymentId,omitempty"`
	Address          *string                `json:"address,omitempty"`
	EmployeeName     *string                `json:"employeeName,omitempty"`
	EmployeePhone    *string                `json:"employeePhone,omitempty"`
	BookingDate      *types.Date            `json:"bookingDate,omitempty"`
	BookingTime      *types.TimeOfDay       `json:"bookingTime,omitempty"`
	TotalPrice       *decimal.Decimal       `json:"totalPrice,omitempty"`
	SubmittedBy      *string                `json:"submittedBy,omitempty"`
	SubmittedAt      *time.Time             `json:"submittedAt,omitempty"`
	WorkerID         *string                `json:"workerId,omitempty"`
	WorkerName       *string                `json:"workerName,omitempty"`
	AssignedDate     *types.Date            `json:"assignedDate,omitempty"`
	AssignmentStatus enums.AssignmentStatus `json:"assignmentStatus"`
	Latitude         *float64               `json:"latitude,omitempty"`
	Longitude        *float64               `json:"longitude,omitempty"`
	GeocodeStatus    enums.GeocodeStatus    `json:"geocodeStatus"`
	RouteOrder       *int                   `json:"routeOrder,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

func NewBookingView(b models.Booking) BookingView {
	view := BookingView{
		ID:               b.ID,
		OrderNo:          b.OrderNo,
		UserID:           b.UserID,
		CustomerName:     b.CustomerName,
		CustomerMobile:   b.CustomerMobile,
		ServiceName:      b.ServiceName,
		ServiceID:        b.ServiceID,
		ServiceTypes:     b.ServiceTypes,
		Status:           b.Status,
		PaymentID:        b.PaymentID,
		Address:          b.Address,
		EmployeeName:     b.EmployeeName,
		EmployeePhone:    b.EmployeePhone,
		BookingDate:      b.BookingDate,
		BookingTime:      b.BookingTime,
		SubmittedBy:      b.SubmittedBy,
		SubmittedAt:      b.SubmittedAt,
		WorkerID:         b.WorkerID,
		WorkerName:       b.WorkerName,
		AssignedDate:     b.AssignedDate,
		AssignmentStatus: b.AssignmentStatus,
		Latitude:         b.Latitude,
		Longitude:        b.Longitude,
		GeocodeStatus:    b.GeocodeStatus,
		RouteOrder:       b.RouteOrder,
		Notes:            b.Notes.Render(),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.TotalPrice.Valid {
		price := b.TotalPrice.Decimal
		view.TotalPrice = &price
	}
	return view
}

func NewBookingViews(bookings []models.Booking) []BookingView {
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b))
	}
	return views
}

// RouteSummary is the API shape of a DayRoute.
type RouteSummary struct {
	WorkerID             string     `json:"workerId"`
	RouteDate            types.Date `json:"routeDate"`
	StartLocation        string     `json:"startLocation"`
	StartLatitude        float64    `json:"startLatitude"`
	StartLongitude       float64    `json:"startLongitude"`
	TotalDistanceKM      float64    `json:"totalDistanceKm"`
	TotalDurationMinutes int        `json:"totalDurationMinutes"`
	OrderSequence        string     `json:"orderSequence"`
	MapURL               *string    `json:"mapUrl,omitempty"`
	Active               bool       `json:"active"`
	CreatedBy            string     `json:"createdBy"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func newRouteSummary(r *models.DayRoute) *RouteSummary {
	if r == nil {
		return nil
	}
	return &RouteSummary{
		WorkerID:             r.WorkerID,
		RouteDate:            r.RouteDate,
		StartLocation:        r.StartLocation,
		StartLatitude:        r.StartLatitude,
		StartLongitude:       r.StartLongitude,
		TotalDistanceKM:      r.TotalDistanceKM,
		TotalDurationMinutes: r.TotalDurationMinutes,
		OrderSequence:        r.OrderSequence,
		MapURL:               r.MapURL,
		Active:               r.Active,
		CreatedBy:            r.CreatedBy,
		UpdatedAt:            r.UpdatedAt,
	}
}

// AuditEntryView is the API shape of an audit log row.
type AuditEntryView struct {
	ID           int64             `json:"id"`
	BookingID    int64             `json:"bookingId"`
	OrderNo      *string           `json:"orderNo,omitempty"`
	ActionType   enums.AuditAction `json:"actionType"`
	ChangedBy    string            `json:"changedBy"`
	OldValue     *string           `json:"oldValue,omitempty"`
	NewValue     *string           `json:"newValue,omitempty"`
	FieldChanged *string           `json:"fieldChanged,omitempty"`
	IPAddress    *string           `json:"ipAddress,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func NewAuditEntryViews(entries []models.AuditEntry) []AuditEntryView {
	views := make([]AuditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, AuditEntryView{
			ID:           e.ID,
			BookingID:    e.BookingID,
			OrderNo:      e.OrderNo,
			ActionType:   e.ActionType,
			ChangedBy:    e.ChangedBy,
			OldValue:     e.OldValue,
			NewValue:     e.NewValue,
			FieldChanged: e.FieldChanged,
			IPAddress:    e.IPAddress,
			Notes:        e.Notes,
			CreatedAt:    e.CreatedAt,
		})
	}
	return views
}

type WorkerView struct {
	WorkerID   string  `json:"workerId"`
	Name       string  `json:"name"`
	Mobile     string  `json:"mobile"`
	CityCode   *string `json:"cityCode,omitempty"`
	BranchCode *string `json:"branchCode,omitempty"`
	BranchDesc *string `json:"branchDesc,omitempty"`
	Active     bool    `json:"active"`
}

func NewWorkerView(w models.Worker) WorkerView {
	return WorkerView{
		WorkerID:   w.WorkerID,
		Name:       w.Name,
		Mobile:     w.Mobile,
		CityCode:   w.CityCode,
		BranchCode: w.BranchCode,
		BranchDesc: w.BranchDesc,
		Active:     w.Active,
	}
}

func NewWorkerViews(workers []models.Worker) []WorkerView {
	views := make([]WorkerView, 0, len(workers))
	for _, w := range workers {
		views = append(views, NewWorkerView(w))
	}
	return views
}
