package config

import "time"

const EnvPrefix = "FIELDOPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const DefaultExternalTimeout = 10 * time.Second

const (
	EnvAppEnv   = "FIELDOPS_APP_ENV"
	EnvPort     = "FIELDOPS_APP_PORT"
	EnvLogLevel = "FIELDOPS_LOG_LEVEL"

	EnvDBDSN  = "FIELDOPS_DB_DSN"
	EnvDBHost = "FIELDOPS_DB_HOST"
	EnvDBUser = "FIELDOPS_DB_USER"
	EnvDBName = "FIELDOPS_DB_NAME"

	EnvRedisURL = "FIELDOPS_REDIS_URL"

	EnvJWTSecret = "FIELDOPS_JWT_SECRET"

	EnvBootstrapOperatorPhone    = "FIELDOPS_BOOTSTRAP_OPERATOR_PHONE"
	EnvBootstrapOperatorPassword = "FIELDOPS_BOOTSTRAP_OPERATOR_PASSWORD"

	EnvGeocoderAPIKey          = "GEOCODER_API_KEY"
	EnvUpstreamURL             = "UPSTREAM_BOOKINGS_URL"
	EnvUpstreamAPIKey          = "UPSTREAM_API_KEY"
	EnvExternalHTTPTimeoutMS   = "EXTERNAL_HTTP_TIMEOUT_MS"
	EnvExternalHTTPInsecureTLS = "EXTERNAL_HTTP_INSECURE_SKIP_VERIFY"
	EnvGeocodeRatePerSec       = "FIELDOPS_GEOCODE_RATE_PER_SEC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
