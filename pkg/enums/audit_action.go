package enums

import "fmt"

// AuditAction names the kind of booking mutation an audit entry records.
type AuditAction string

const (
	AuditActionFetched    AuditAction = "FETCHED"
	AuditActionCreated    AuditAction = "CREATED"
	AuditActionUpdated    AuditAction = "UPDATED"
	AuditActionSubmitted  AuditAction = "SUBMITTED"
	AuditActionAssigned   AuditAction = "ASSIGNED"
	AuditActionReassigned AuditAction = "REASSIGNED"
	AuditActionGeocoded   AuditAction = "GEOCODED"
)

var validAuditActions = []AuditAction{
	AuditActionFetched,
	AuditActionCreated,
	AuditActionUpdated,
	AuditActionSubmitted,
	AuditActionAssigned,
	AuditActionReassigned,
	AuditActionGeocoded,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
