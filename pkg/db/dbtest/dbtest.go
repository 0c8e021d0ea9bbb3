// Package dbtest opens throwaway in-memory SQLite databases carrying the
// same tables and invariant checks as the Postgres migrations.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/instafit/fieldops-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE workers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		mobile TEXT NOT NULL UNIQUE,
		city_code TEXT,
		branch_code TEXT,
		branch_desc TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_no TEXT NOT NULL UNIQUE,
		user_id TEXT,
		customer_name TEXT,
		customer_mobile TEXT,
		service_name TEXT,
		service_id INTEGER,
		service_types TEXT,
		status TEXT,
		payment_id TEXT,
		address TEXT,
		employee_name TEXT,
		employee_phone TEXT,
		booking_date DATE,
		booking_time TIME,
		total_price TEXT,
		submitted_by TEXT,
		submitted_at DATETIME,
		worker_id TEXT,
		worker_name TEXT,
		assigned_date DATE,
		assignment_status TEXT NOT NULL DEFAULT 'SUBMITTED',
		latitude REAL,
		longitude REAL,
		geocode_status TEXT NOT NULL DEFAULT 'PENDING',
		route_order INTEGER,
		notes TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT bookings_assigned_has_worker_check
			CHECK (assignment_status = 'SUBMITTED' OR (worker_id IS NOT NULL AND assigned_date IS NOT NULL)),
		CONSTRAINT bookings_geo_coherence_check
			CHECK ((geocode_status IN ('SUCCESS', 'SUCCESS_MANUAL', 'MANUAL')) = (latitude IS NOT NULL AND longitude IS NOT NULL)),
		CONSTRAINT bookings_route_order_check
			CHECK (route_order IS NULL OR (route_order > 0 AND latitude IS NOT NULL AND longitude IS NOT NULL AND assigned_date IS NOT NULL))
	)`,
	`CREATE INDEX idx_bookings_worker_day ON bookings (worker_id, assigned_date)`,
	`CREATE TABLE ingest_markers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_no TEXT NOT NULL UNIQUE,
		booking_id INTEGER NOT NULL,
		first_fetched_at DATETIME NOT NULL,
		last_fetched_at DATETIME NOT NULL,
		fetch_count INTEGER NOT NULL DEFAULT 1,
		fetched_by TEXT NOT NULL
	)`,
	`CREATE TABLE day_routes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		route_date DATE NOT NULL,
		start_location TEXT NOT NULL,
		start_latitude REAL NOT NULL,
		start_longitude REAL NOT NULL,
		total_distance_km REAL NOT NULL,
		total_duration_minutes INTEGER NOT NULL,
		order_sequence TEXT NOT NULL,
		map_url TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX idx_day_routes_worker_date ON day_routes (worker_id, route_date)`,
	`CREATE TABLE audit_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id INTEGER NOT NULL,
		order_no TEXT,
		action_type TEXT NOT NULL,
		changed_by TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		field_changed TEXT,
		ip_address TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE user_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone_number TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL CHECK (role IN ('operator', 'worker')),
		worker_id TEXT UNIQUE REFERENCES workers (worker_id),
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		last_login_at DATETIME,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT user_accounts_worker_link_check CHECK ((role = 'worker') = (worker_id IS NOT NULL))
	)`,
}

// Open returns a client over a fresh, isolated in-memory database. The pool is
// pinned to a single connection, so code under test must not touch the root
// handle while a transaction is open.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	return db.NewFromConn(conn)
}
