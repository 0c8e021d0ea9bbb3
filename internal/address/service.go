package address

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/maps"
)

// Country is appended to every derived geocoder query.
const Country = "India"

var postcodePattern = regexp.MustCompile(`^\d{6}$`)

// Geocoder is the subset of the maps client used to resolve locations.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, address string) maps.GeocodeResult
	GeocodePostcode(ctx context.Context, postcode, country string) maps.GeocodeResult
}

type Service interface {
	// Locate geocodes a stored booking address after deriving the query.
	Locate(ctx context.Context, raw string) maps.GeocodeResult
	// LocatePostcode geocodes a bare postcode.
	LocatePostcode(ctx context.Context, postcode string) maps.GeocodeResult
}

type service struct {
	geocoder Geocoder
}

// NewService wraps the geocoder. A nil geocoder yields "not configured" failures.
func NewService(geocoder Geocoder) Service {
	return &service{geocoder: geocoder}
}

func (s *service) Locate(ctx context.Context, raw string) maps.GeocodeResult {
	if strings.TrimSpace(raw) == "" {
		return maps.GeocodeResult{Reason: "address is empty"}
	}
	if s == nil || s.geocoder == nil {
		return maps.GeocodeResult{Reason: "not configured"}
	}
	return s.geocoder.GeocodeAddress(ctx, DeriveQuery(raw))
}

func (s *service) LocatePostcode(ctx context.Context, postcode string) maps.GeocodeResult {
	if s == nil || s.geocoder == nil {
		return maps.GeocodeResult{Reason: "not configured"}
	}
	return s.geocoder.GeocodePostcode(ctx, strings.TrimSpace(postcode), Country)
}

// DeriveQuery turns "<street details> - <6-digit postcode>" into
// "<street details>, <postcode>, India". Text without a trailing postcode is
// passed through with the country appended.
func DeriveQuery(raw string) string {
	full := strings.TrimSpace(raw)
	if idx := strings.LastIndex(full, "-"); idx >= 0 {
		suffix := strings.TrimSpace(full[idx+1:])
		if postcodePattern.MatchString(suffix) {
			prefix := strings.TrimSpace(full[:idx])
			return fmt.Sprintf("%s, %s, %s", prefix, suffix, Country)
		}
	}
	return fmt.Sprintf("%s, %s", full, Country)
}

// ValidatePostcode requires exactly six digits.
func ValidatePostcode(postcode string) error {
	if !postcodePattern.MatchString(strings.TrimSpace(postcode)) {
		return errors.Validationf("postcode must be 6 digits, got %q", postcode)
	}
	return nil
}
