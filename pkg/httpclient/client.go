package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// New returns the HTTP client shared by outbound integrations. TLS is verified
// unless the insecure debug switch is set, in which case a warning is logged.
func New(ctx context.Context, cfg config.ExternalHTTPConfig, logg *logger.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second

	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit debug opt-in
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "env", config.EnvExternalHTTPInsecureTLS), "outbound TLS verification disabled")
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: transport,
	}
}
