package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

func TestNewVerifiesTLSByDefault(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(context.Background(), config.ExternalHTTPConfig{TimeoutMS: 2000}, nil)
	assert.Equal(t, 2*time.Second, client.Timeout)

	_, err := client.Get(srv.URL)
	require.Error(t, err, "self-signed certificate must be rejected")
}

func TestNewInsecureOptIn(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})

	client := New(context.Background(), config.ExternalHTTPConfig{TimeoutMS: 2000, InsecureSkipVerify: true}, logg)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "outbound TLS verification disabled")
}
