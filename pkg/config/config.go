package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Bootstrap    BootstrapConfig
	Geocoder     GeocoderConfig
	Upstream     UpstreamConfig
	HTTP         ExternalHTTPConfig
	Assignment   AssignmentConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs error
	if c.HTTP.TimeoutMS <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvExternalHTTPTimeoutMS))
	}
	if c.Assignment.GeocodeRatePerSec < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvGeocodeRatePerSec))
	}
	if c.Bootstrap.Enabled() && len(c.Bootstrap.OperatorPassword) < 6 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 6 characters", EnvBootstrapOperatorPassword))
	}
	if c.Upstream.URL != "" {
		if _, err := url.ParseRequestURI(c.Upstream.URL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s is not a valid url: %w", EnvUpstreamURL, err))
		}
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"FIELDOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDOPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FIELDOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDOPS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"FIELDOPS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FIELDOPS_DB_DSN"`

	LegacyHost     string `envconfig:"FIELDOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"FIELDOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIELDOPS_DB_USER"`
	LegacyPassword string `envconfig:"FIELDOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIELDOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIELDOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIELDOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"FIELDOPS_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDOPS_REDIS_URL"`
	Address      string        `envconfig:"FIELDOPS_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDOPS_REDIS_POOL_SIZE" default:"5"`
	DialTimeout  time.Duration `envconfig:"FIELDOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FIELDOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FIELDOPS_JWT_ISSUER" default:"fieldops"`
	ExpirationMinutes int    `envconfig:"FIELDOPS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDOPS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDOPS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDOPS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDOPS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDOPS_ARGON_KEY_LEN" default:"32"`
}

// BootstrapConfig seeds the first operator account at API startup when no
// account with that phone number exists.
type BootstrapConfig struct {
	OperatorPhone    string `envconfig:"FIELDOPS_BOOTSTRAP_OPERATOR_PHONE"`
	OperatorName     string `envconfig:"FIELDOPS_BOOTSTRAP_OPERATOR_NAME" default:"Operations"`
	OperatorPassword string `envconfig:"FIELDOPS_BOOTSTRAP_OPERATOR_PASSWORD"`
}

// Enabled reports whether both phone and password were supplied.
func (b BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(b.OperatorPhone) != "" && b.OperatorPassword != ""
}

// GeocoderConfig holds the Google Maps credentials. An empty key leaves the
// geocoder unconfigured and every geocode/optimize call fails softly.
type GeocoderConfig struct {
	APIKey  string `envconfig:"GEOCODER_API_KEY"`
	BaseURL string `envconfig:"GEOCODER_BASE_URL"`
	Country string `envconfig:"GEOCODER_COUNTRY" default:"India"`
}

// Configured reports whether an API key was supplied.
func (g GeocoderConfig) Configured() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type UpstreamConfig struct {
	URL    string `envconfig:"UPSTREAM_BOOKINGS_URL"`
	APIKey string `envconfig:"UPSTREAM_API_KEY"`
	Actor  string `envconfig:"UPSTREAM_FETCH_ACTOR" default:"SYSTEM"`
}

type ExternalHTTPConfig struct {
	TimeoutMS          int  `envconfig:"EXTERNAL_HTTP_TIMEOUT_MS" default:"10000"`
	InsecureSkipVerify bool `envconfig:"EXTERNAL_HTTP_INSECURE_SKIP_VERIFY" default:"false"`
}

// Timeout returns the per-call outbound timeout.
func (h ExternalHTTPConfig) Timeout() time.Duration {
	if h.TimeoutMS <= 0 {
		return DefaultExternalTimeout
	}
	return time.Duration(h.TimeoutMS) * time.Millisecond
}

type AssignmentConfig struct {
	// GeocodeRatePerSec paces the post-assignment geocode pass; 0 disables pacing.
	GeocodeRatePerSec float64 `envconfig:"FIELDOPS_GEOCODE_RATE_PER_SEC" default:"10"`
}

// RateLimitConfig throttles the upstream fetch and login endpoints per client
// IP. A zero limit disables throttling.
type RateLimitConfig struct {
	FetchLimit  int           `envconfig:"FIELDOPS_FETCH_RATE_LIMIT" default:"6"`
	FetchWindow time.Duration `envconfig:"FIELDOPS_FETCH_RATE_WINDOW" default:"1m"`
	LoginLimit  int           `envconfig:"FIELDOPS_LOGIN_RATE_LIMIT" default:"10"`
	LoginWindow time.Duration `envconfig:"FIELDOPS_LOGIN_RATE_WINDOW" default:"1m"`
}

type CronConfig struct {
	FetchInterval time.Duration `envconfig:"FIELDOPS_FETCH_INTERVAL" default:"15m"`
	LockTTL       time.Duration `envconfig:"FIELDOPS_CRON_LOCK_TTL" default:"10m"`
	// MetricsAddr is where the worker serves /metrics; empty disables it.
	MetricsAddr string `envconfig:"FIELDOPS_CRON_METRICS_ADDR" default:":9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FIELDOPS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
