package enums

import "fmt"

// AssignmentStatus tracks where a booking sits in the dispatch lifecycle.
type AssignmentStatus string

const (
	AssignmentStatusSubmitted  AssignmentStatus = "SUBMITTED"
	AssignmentStatusAssigned   AssignmentStatus = "ASSIGNED"
	AssignmentStatusInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusSubmitted,
	AssignmentStatusAssigned,
	AssignmentStatusInProgress,
	AssignmentStatusCompleted,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// RequiresWorker reports whether the status implies a worker and date are bound.
func (s AssignmentStatus) RequiresWorker() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusInProgress || s == AssignmentStatusCompleted
}

// CanTransitionTo reports whether a field worker may move a job from s to next.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	switch s {
	case AssignmentStatusAssigned:
		return next == AssignmentStatusInProgress || next == AssignmentStatusCompleted
	case AssignmentStatusInProgress:
		return next == AssignmentStatusCompleted
	default:
		return false
	}
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
