package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/instafit/fieldops-backend/pkg/metrics"
)

const (
	defaultBaseURL               = "https://maps.googleapis.com/maps/api"
	defaultTimeout               = 10 * time.Second
	errorBodyReadLimit     int64 = 1024
	responseReadLimit      int64 = 4 << 20
	metricsService               = "google_maps"
	statusOK                     = "OK"
	statusZeroResults            = "ZERO_RESULTS"
	reasonNotConfigured          = "not configured"
	defaultPostcodeCountry       = "India"
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Geocoding and Directions web services. A nil *Client
// is valid: every call fails softly with reason "not configured".
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	metrics    *metrics.ExternalCallMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Maps web service base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics records call outcomes and latency.
func WithMetrics(m *metrics.ExternalCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

func (c *Client) configured() bool {
	return c != nil && c.apiKey != ""
}

// getJSON issues a GET against endpoint and decodes the body into out. The
// returned reason is empty on success and human readable otherwise.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, query url.Values, out any) string {
	started := time.Now()
	reason := c.doGetJSON(ctx, endpoint, query, out)
	c.metrics.Observe(metricsService, operation, reason == "", time.Since(started))
	return reason
}

func (c *Client) doGetJSON(ctx context.Context, endpoint string, query url.Values, out any) string {
	query.Set("key", c.apiKey)
	target := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(endpoint, "/"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("request failed: %v", redactKey(err, c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, responseReadLimit)).Decode(out); err != nil {
		return fmt.Sprintf("malformed response: %v", err)
	}
	return ""
}

// redactKey keeps the API key out of transport errors, which embed the URL.
func redactKey(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
}
