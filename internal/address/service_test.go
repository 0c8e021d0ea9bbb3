package address

import (
	"context"
	"testing"

	"github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/maps"
)

type recordingGeocoder struct {
	queries   []string
	postcodes []string
	result    maps.GeocodeResult
}

func (r *recordingGeocoder) GeocodeAddress(_ context.Context, address string) maps.GeocodeResult {
	r.queries = append(r.queries, address)
	return r.result
}

func (r *recordingGeocoder) GeocodePostcode(_ context.Context, postcode, country string) maps.GeocodeResult {
	r.postcodes = append(r.postcodes, postcode+"|"+country)
	return r.result
}

func TestDeriveQuery(t *testing.T) {
	cases := map[string]string{
		"12 Baker Street, Mumbai - 400001": "12 Baker Street, Mumbai, 400001, India",
		"Lane X":                           "Lane X, India",
		"Plot - 7B":                        "Plot - 7B, India",
		"Flat 2-B, MG Road-560001":         "Flat 2-B, MG Road, 560001, India",
		"Sector-5 - 1234567":               "Sector-5 - 1234567, India",
	}
	for input, want := range cases {
		if got := DeriveQuery(input); got != want {
			t.Fatalf("DeriveQuery(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLocateUsesDerivedQuery(t *testing.T) {
	geo := &recordingGeocoder{result: maps.GeocodeResult{Success: true}}
	svc := NewService(geo)

	res := svc.Locate(context.Background(), "12 Baker Street, Mumbai - 400001")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(geo.queries) != 1 || geo.queries[0] != "12 Baker Street, Mumbai, 400001, India" {
		t.Fatalf("unexpected queries %v", geo.queries)
	}
}

func TestLocateEmptyAddressSkipsGeocoder(t *testing.T) {
	geo := &recordingGeocoder{result: maps.GeocodeResult{Success: true}}
	res := NewService(geo).Locate(context.Background(), "   ")
	if res.Success {
		t.Fatal("expected failure for empty address")
	}
	if len(geo.queries) != 0 {
		t.Fatalf("geocoder should not be called, got %v", geo.queries)
	}
}

func TestLocateWithoutGeocoder(t *testing.T) {
	res := NewService(nil).Locate(context.Background(), "Lane X")
	if res.Success || res.Reason != "not configured" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLocatePostcodeAppendsCountry(t *testing.T) {
	geo := &recordingGeocoder{}
	NewService(geo).LocatePostcode(context.Background(), " 560001 ")
	if len(geo.postcodes) != 1 || geo.postcodes[0] != "560001|India" {
		t.Fatalf("unexpected postcode calls %v", geo.postcodes)
	}
}

func TestValidatePostcode(t *testing.T) {
	if err := ValidatePostcode("560001"); err != nil {
		t.Fatalf("expected valid postcode, got %v", err)
	}
	for _, bad := range []string{"", "56001", "5600011", "56A001"} {
		err := ValidatePostcode(bad)
		if !errors.IsCode(err, errors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}
