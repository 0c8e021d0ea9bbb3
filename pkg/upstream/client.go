package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/metrics"
)

const (
	defaultTimeout           = 10 * time.Second
	errorBodyReadLimit int64 = 1024
	responseReadLimit  int64 = 32 << 20
	metricsService           = "upstream_bookings"
)

var (
	errURLRequired    = errors.New("upstream bookings url is required")
	errAPIKeyRequired = errors.New("upstream api key is required")
)

// Record is one booking object from the upstream feed. Typed parsing of dates,
// times and timestamps happens during import so a bad field fails only its record.
type Record struct {
	OrderNo        string              `json:"order_no"`
	UserID         *string             `json:"user_id"`
	CustomerName   *string             `json:"customer_name"`
	CustomerMobile *string             `json:"customer_mobile"`
	ServiceName    *string             `json:"service_name"`
	ServiceID      *int64              `json:"service_id"`
	ServiceTypes   json.RawMessage     `json:"service_types"`
	Status         *string             `json:"status"`
	PaymentID      *string             `json:"payment_id"`
	Address        *string             `json:"address"`
	EmployeeName   *string             `json:"employee_name"`
	EmployeePhone  *string             `json:"employee_phone"`
	Date           *string             `json:"date"`
	BookingTime    *string             `json:"booking_time"`
	CreatedAt      *string             `json:"created_at"`
	TotalPrice     decimal.NullDecimal `json:"total_price"`
}

// Client reads the upstream bookings endpoint.
type Client struct {
	httpClient *http.Client
	url        string
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

// WithMetrics records call outcomes and latency.
func WithMetrics(m *metrics.ExternalCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds an upstream client for the given endpoint and key.
func NewClient(endpoint, apiKey string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errURLRequired
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		url:        endpoint,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FetchRaw issues a single GET and returns the array elements undecoded. Any
// transport, status or envelope problem is a dependency error; nothing partial
// is returned.
func (c *Client) FetchRaw(ctx context.Context) ([]json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upstream bookings client not configured")
	}

	started := time.Now()
	records, err := c.fetch(ctx)
	c.metrics.Observe(metricsService, "fetch", err == nil, time.Since(started))
	return records, err
}

func (c *Client) fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upstream request")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upstream request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "upstream request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upstream response")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
	}
	return records, nil
}

// DecodeRecord decodes one raw element. The order number is mandatory.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	rec.OrderNo = strings.TrimSpace(rec.OrderNo)
	if rec.OrderNo == "" {
		return Record{}, errors.New("decode record: order_no is required")
	}
	return rec, nil
}
