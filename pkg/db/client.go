package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

const connectTimeout = 10 * time.Second

// Client owns the pooled GORM connection shared by every repository.
type Client struct {
	conn *gorm.DB
}

// Pinger is what the readiness probe needs from a datasource.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the Postgres pool and verifies it answers before returning.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), gormConfig(logg, cfg.SlowQuery))
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	client := &Client{conn: conn}

	sqlDB, err := client.SQL()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "max_open_conns", cfg.MaxOpenConns), "database connection established")
	}
	return client, nil
}

// NewFromConn wraps a handle opened elsewhere, such as an in-memory sqlite
// database in tests.
func NewFromConn(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

// gormConfig reports slow queries and driver errors through logg; record
// not found is an expected outcome and stays quiet.
func gormConfig(logg *logger.Logger, slow time.Duration) *gorm.Config {
	cfg := &gorm.Config{SkipDefaultTransaction: true, Logger: gormlogger.Discard}
	if logg != nil {
		cfg.Logger = gormlogger.New(queryLog{logg: logg}, gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		})
	}
	return cfg
}

type queryLog struct {
	logg *logger.Logger
}

func (q queryLog) Printf(format string, args ...any) {
	q.logg.Warn(q.logg.WithField(context.Background(), "event", "db.query"), fmt.Sprintf(format, args...))
}

func configurePool(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// SQL exposes the database/sql pool for goose.
func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction that commits only when fn returns nil.
// A panic inside fn rolls back and is re-raised.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
