package enums

import "testing"

func TestParseAssignmentStatus(t *testing.T) {
	for _, status := range validAssignmentStatuses {
		got, err := ParseAssignmentStatus(status.String())
		if err != nil || got != status {
			t.Fatalf("expected %s to parse, got %q err=%v", status, got, err)
		}
	}
	if _, err := ParseAssignmentStatus("assigned"); err == nil {
		t.Fatalf("expected lowercase status to be rejected")
	}
}

func TestAssignmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AssignmentStatus
		ok       bool
	}{
		{AssignmentStatusAssigned, AssignmentStatusInProgress, true},
		{AssignmentStatusAssigned, AssignmentStatusCompleted, true},
		{AssignmentStatusInProgress, AssignmentStatusCompleted, true},
		{AssignmentStatusInProgress, AssignmentStatusAssigned, false},
		{AssignmentStatusCompleted, AssignmentStatusInProgress, false},
		{AssignmentStatusSubmitted, AssignmentStatusInProgress, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestAssignmentStatusRequiresWorker(t *testing.T) {
	if AssignmentStatusSubmitted.RequiresWorker() {
		t.Fatalf("submitted bookings do not need a worker")
	}
	if !AssignmentStatusInProgress.RequiresWorker() {
		t.Fatalf("in-progress bookings need a worker")
	}
}

func TestGeocodeStatusHasCoordinates(t *testing.T) {
	with := []GeocodeStatus{GeocodeStatusSuccess, GeocodeStatusSuccessManual, GeocodeStatusManual}
	without := []GeocodeStatus{GeocodeStatusPending, GeocodeStatusFailed}
	for _, s := range with {
		if !s.HasCoordinates() {
			t.Fatalf("%s should imply coordinates", s)
		}
	}
	for _, s := range without {
		if s.HasCoordinates() {
			t.Fatalf("%s should not imply coordinates", s)
		}
	}
}

func TestParseRoutingOption(t *testing.T) {
	if got, err := ParseRoutingOption("AUTO"); err != nil || got != RoutingOptionAuto {
		t.Fatalf("expected auto, got %q err=%v", got, err)
	}
	if got, err := ParseRoutingOption(""); err != nil || got != RoutingOptionManual {
		t.Fatalf("expected empty to mean manual, got %q err=%v", got, err)
	}
	if _, err := ParseRoutingOption("sometimes"); err == nil {
		t.Fatalf("expected invalid option error")
	}
}

func TestParseAuditAction(t *testing.T) {
	if got, err := ParseAuditAction("REASSIGNED"); err != nil || got != AuditActionReassigned {
		t.Fatalf("expected REASSIGNED, got %q err=%v", got, err)
	}
	if _, err := ParseAuditAction("DELETED"); err == nil {
		t.Fatalf("expected unknown action to be rejected")
	}
}

func TestParseActorRole(t *testing.T) {
	if got, err := ParseActorRole("worker"); err != nil || got != ActorRoleWorker {
		t.Fatalf("expected worker, got %q err=%v", got, err)
	}
	if _, err := ParseActorRole("admin"); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
