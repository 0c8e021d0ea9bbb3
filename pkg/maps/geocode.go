package maps

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GeocodeResult is the sum-typed outcome of a geocode call. When Success is
// false only Reason is meaningful.
type GeocodeResult struct {
	Success          bool   `json:"success"`
	Location         LatLng `json:"location"`
	FormattedAddress string `json:"formattedAddress,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

func geocodeFailure(reason string) GeocodeResult {
	return GeocodeResult{Success: false, Reason: reason}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         *struct {
			Location *struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GeocodeAddress resolves free-form address text. It never returns an error;
// every failure mode is folded into the result.
func (c *Client) GeocodeAddress(ctx context.Context, address string) GeocodeResult {
	if !c.configured() {
		return geocodeFailure(reasonNotConfigured)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return geocodeFailure("address is required")
	}

	var body geocodeResponse
	if reason := c.getJSON(ctx, "geocode", "geocode/json", url.Values{"address": {address}}, &body); reason != "" {
		return geocodeFailure("Geocoding failed: " + reason)
	}

	switch {
	case body.Status == statusZeroResults:
		return geocodeFailure("No results found for address")
	case body.Status != statusOK:
		reason := "Geocoding failed: " + body.Status
		if body.ErrorMessage != "" {
			reason += " (" + body.ErrorMessage + ")"
		}
		return geocodeFailure(reason)
	case len(body.Results) == 0:
		return geocodeFailure("No results found for address")
	}

	first := body.Results[0]
	if first.Geometry == nil || first.Geometry.Location == nil {
		return geocodeFailure("Geocoding failed: result has no location")
	}

	return GeocodeResult{
		Success:          true,
		Location:         LatLng{Latitude: first.Geometry.Location.Lat, Longitude: first.Geometry.Location.Lng},
		FormattedAddress: first.FormattedAddress,
	}
}

// GeocodePostcode geocodes "<code>, <country>"; country defaults to India.
func (c *Client) GeocodePostcode(ctx context.Context, postcode, country string) GeocodeResult {
	postcode = strings.TrimSpace(postcode)
	if postcode == "" {
		if !c.configured() {
			return geocodeFailure(reasonNotConfigured)
		}
		return geocodeFailure("postcode is required")
	}
	country = strings.TrimSpace(country)
	if country == "" {
		country = defaultPostcodeCountry
	}
	return c.GeocodeAddress(ctx, fmt.Sprintf("%s, %s", postcode, country))
}
