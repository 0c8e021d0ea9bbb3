package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instafit/fieldops-backend/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *[]*http.Request) {
	t.Helper()
	var captured []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = append(captured, r.Clone(context.Background()))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	all := append([]Option{WithBaseURL(srv.URL + "/maps/api"), WithHTTPClient(srv.Client())}, opts...)
	client, err := NewClient("test-key", all...)
	require.NoError(t, err)
	return client, &captured
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("   ")
	require.ErrorIs(t, err, errAPIKeyRequired)
}

func TestNilClientIsNotConfigured(t *testing.T) {
	var client *Client
	ctx := context.Background()

	res := client.GeocodeAddress(ctx, "12 Baker Street, Mumbai, 400001, India")
	assert.False(t, res.Success)
	assert.Equal(t, "not configured", res.Reason)

	res = client.GeocodePostcode(ctx, "560001", "")
	assert.Equal(t, "not configured", res.Reason)

	route := client.OptimizeRoute(ctx, LatLng{}, LatLng{}, []LatLng{{Latitude: 1, Longitude: 2}})
	assert.False(t, route.Success)
	assert.Equal(t, "not configured", route.Reason)
}

func TestGeocodeAddressSuccess(t *testing.T) {
	client, captured := newTestClient(t, writeJSON(`{"status":"OK","results":[{"formatted_address":"Baker St, Mumbai","geometry":{"location":{"lat":12.97,"lng":77.59}}}]}`))

	res := client.GeocodeAddress(context.Background(), "12 Baker Street, Mumbai, 400001, India")
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, 12.97, res.Location.Latitude)
	assert.Equal(t, 77.59, res.Location.Longitude)
	assert.Equal(t, "Baker St, Mumbai", res.FormattedAddress)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/maps/api/geocode/json", req.URL.Path)
	assert.Equal(t, "12 Baker Street, Mumbai, 400001, India", req.URL.Query().Get("address"))
	assert.Equal(t, "test-key", req.URL.Query().Get("key"))
}

func TestGeocodeAddressFailureShapes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name:    "zero results",
			handler: writeJSON(`{"status":"ZERO_RESULTS","results":[]}`),
			reason:  "No results found for address",
		},
		{
			name:    "ok but empty",
			handler: writeJSON(`{"status":"OK","results":[]}`),
			reason:  "No results found for address",
		},
		{
			name:    "denied",
			handler: writeJSON(`{"status":"REQUEST_DENIED","error_message":"bad key"}`),
			reason:  "Geocoding failed: REQUEST_DENIED (bad key)",
		},
		{
			name:    "missing location",
			handler: writeJSON(`{"status":"OK","results":[{"formatted_address":"x"}]}`),
			reason:  "Geocoding failed: result has no location",
		},
		{
			name:    "malformed",
			handler: writeJSON(`{"status":`),
			reason:  "Geocoding failed: malformed response",
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "upstream broke", http.StatusBadGateway)
			},
			reason: "Geocoding failed: HTTP 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			res := client.GeocodeAddress(context.Background(), "Lane X, India")
			assert.False(t, res.Success)
			assert.True(t, strings.HasPrefix(res.Reason, tt.reason), "reason %q", res.Reason)
		})
	}
}

func TestGeocodeAddressTimeoutIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client, err := NewClient("secret-key", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)

	res := client.GeocodeAddress(context.Background(), "Lane X, India")
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "request failed")
	assert.NotContains(t, res.Reason, "secret-key")
}

func TestGeocodeAddressEmptyInputSkipsCall(t *testing.T) {
	client, captured := newTestClient(t, writeJSON(`{"status":"OK"}`))
	res := client.GeocodeAddress(context.Background(), "  ")
	assert.False(t, res.Success)
	assert.Empty(t, *captured)
}

func TestGeocodePostcodeDefaultsCountry(t *testing.T) {
	client, captured := newTestClient(t, writeJSON(`{"status":"OK","results":[{"geometry":{"location":{"lat":12.97,"lng":77.59}}}]}`))

	res := client.GeocodePostcode(context.Background(), "560001", "")
	require.True(t, res.Success)
	assert.Equal(t, "560001, India", (*captured)[0].URL.Query().Get("address"))

	client.GeocodePostcode(context.Background(), "10115", "Germany")
	assert.Equal(t, "10115, Germany", (*captured)[1].URL.Query().Get("address"))
}

func TestOptimizeRouteSuccess(t *testing.T) {
	body := `{"status":"OK","routes":[{"waypoint_order":[2,0,1],"legs":[
		{"distance":{"value":1200},"duration":{"value":150}},
		{"distance":{"value":800},"duration":{"value":90}},
		{"distance":{"value":500},"duration":{"value":59}},
		{"distance":{"value":2500},"duration":{"value":301}}]}]}`
	reg := prometheus.NewRegistry()
	client, captured := newTestClient(t, writeJSON(body), WithMetrics(metrics.NewExternalCallMetrics(reg)))

	start := LatLng{Latitude: 12.97, Longitude: 77.59}
	stops := []LatLng{{Latitude: 13, Longitude: 77.6}, {Latitude: 12.9, Longitude: 77.5}, {Latitude: 12.95, Longitude: 77.7}}
	res := client.OptimizeRoute(context.Background(), start, start, stops)

	require.True(t, res.Success, res.Reason)
	assert.Equal(t, []int{2, 0, 1}, res.WaypointOrder)
	require.Len(t, res.Legs, 4)
	assert.Equal(t, int64(1200), res.Legs[0].DistanceMeters)
	assert.Equal(t, int64(301), res.Legs[3].DurationSeconds)

	q := (*captured)[0].URL.Query()
	assert.Equal(t, "/maps/api/directions/json", (*captured)[0].URL.Path)
	assert.Equal(t, "12.970000,77.590000", q.Get("origin"))
	assert.Equal(t, q.Get("origin"), q.Get("destination"))
	assert.Equal(t, "optimize:true|13.000000,77.600000|12.900000,77.500000|12.950000,77.700000", q.Get("waypoints"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestOptimizeRouteFailures(t *testing.T) {
	stops := []LatLng{{Latitude: 13, Longitude: 77.6}, {Latitude: 12.9, Longitude: 77.5}}

	client, _ := newTestClient(t, writeJSON(`{"status":"ZERO_RESULTS","routes":[]}`))
	res := client.OptimizeRoute(context.Background(), LatLng{}, LatLng{}, stops)
	assert.False(t, res.Success)
	assert.Equal(t, "Route optimization failed: ZERO_RESULTS", res.Reason)

	client, _ = newTestClient(t, writeJSON(`{"status":"OK","routes":[{"legs":[]}]}`))
	res = client.OptimizeRoute(context.Background(), LatLng{}, LatLng{}, stops)
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "no waypoint order")

	client, captured := newTestClient(t, writeJSON(`{"status":"OK"}`))
	res = client.OptimizeRoute(context.Background(), LatLng{}, LatLng{}, nil)
	assert.False(t, res.Success)
	assert.Empty(t, *captured)
}

func TestDirectionsURL(t *testing.T) {
	link := DirectionsURL(LatLng{Latitude: 12.97, Longitude: 77.59}, []LatLng{{Latitude: 13, Longitude: 77.6}})
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", parsed.Host)
	assert.Equal(t, "12.970000,77.590000", parsed.Query().Get("origin"))
	assert.Equal(t, "12.970000,77.590000", parsed.Query().Get("destination"))
	assert.Equal(t, "13.000000,77.600000", parsed.Query().Get("waypoints"))
}
