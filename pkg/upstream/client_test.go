package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "key")
	require.ErrorIs(t, err, errURLRequired)
	_, err = NewClient("https://example.com", " ")
	require.ErrorIs(t, err, errAPIKeyRequired)
}

func TestFetchRawSendsBothKeyHeaders(t *testing.T) {
	var apikey, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apikey = r.Header.Get("apikey")
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"order_no":"ORD-001"},{"order_no":"ORD-002","total_price":"1250.50"}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "feed-key", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	records, err := client.FetchRaw(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "feed-key", apikey)
	assert.Equal(t, "Bearer feed-key", auth)

	rec, err := DecodeRecord(records[1])
	require.NoError(t, err)
	assert.Equal(t, "ORD-002", rec.OrderNo)
	require.True(t, rec.TotalPrice.Valid)
	assert.True(t, rec.TotalPrice.Decimal.Equal(decimal.RequireFromString("1250.5")))
}

func TestFetchRawFailuresAreDependencyErrors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		},
		"not an array": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"message":"maintenance"}`))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			client, err := NewClient(srv.URL, "k", WithHTTPClient(srv.Client()))
			require.NoError(t, err)

			records, err := client.FetchRaw(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
		})
	}
}

func TestFetchRawNilClient(t *testing.T) {
	var client *Client
	_, err := client.FetchRaw(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"order_no":" ORD-9 ","service_id":42,"service_types":["Wardrobe","Bed"],"total_price":null}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-9", rec.OrderNo)
	require.NotNil(t, rec.ServiceID)
	assert.Equal(t, int64(42), *rec.ServiceID)
	assert.False(t, rec.TotalPrice.Valid)
	assert.JSONEq(t, `["Wardrobe","Bed"]`, string(rec.ServiceTypes))

	_, err = DecodeRecord(json.RawMessage(`{"customer_name":"x"}`))
	assert.Error(t, err)

	_, err = DecodeRecord(json.RawMessage(`{"order_no":"ORD-1","total_price":"abc"}`))
	assert.Error(t, err)
}
