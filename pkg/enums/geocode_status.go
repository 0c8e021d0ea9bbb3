package enums

import "fmt"

// GeocodeStatus records how (and whether) a booking's coordinates were resolved.
type GeocodeStatus string

const (
	GeocodeStatusPending       GeocodeStatus = "PENDING"
	GeocodeStatusSuccess       GeocodeStatus = "SUCCESS"
	GeocodeStatusSuccessManual GeocodeStatus = "SUCCESS_MANUAL"
	GeocodeStatusManual        GeocodeStatus = "MANUAL"
	GeocodeStatusFailed        GeocodeStatus = "FAILED"
)

var validGeocodeStatuses = []GeocodeStatus{
	GeocodeStatusPending,
	GeocodeStatusSuccess,
	GeocodeStatusSuccessManual,
	GeocodeStatusManual,
	GeocodeStatusFailed,
}

// String implements fmt.Stringer.
func (s GeocodeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GeocodeStatus.
func (s GeocodeStatus) IsValid() bool {
	for _, candidate := range validGeocodeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// HasCoordinates reports whether the status implies both coordinates are set.
func (s GeocodeStatus) HasCoordinates() bool {
	return s == GeocodeStatusSuccess || s == GeocodeStatusSuccessManual || s == GeocodeStatusManual
}

// ParseGeocodeStatus converts raw input into a GeocodeStatus.
func ParseGeocodeStatus(value string) (GeocodeStatus, error) {
	for _, candidate := range validGeocodeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid geocode status %q", value)
}
