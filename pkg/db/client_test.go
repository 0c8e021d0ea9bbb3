package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig(nil, 0))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "rollback should leave one record")
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	require.PanicsWithValue(t, "boom", func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&testModel{Name: "lost"}).Error)
			panic("boom")
		})
	})

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	conn := newTestDB(t)
	require.NoError(t, conn.Create(&testModel{Name: "dup"}).Error)
	err := conn.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)

	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "test_models.name"))
	require.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
	require.False(t, IsUniqueViolation(nil, ""))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_order_no_key"}
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgErr), "bookings_order_no_key"))
	require.False(t, IsUniqueViolation(pgErr, "workers_mobile_key"))
}

func TestIsNotFound(t *testing.T) {
	conn := newTestDB(t)
	var m testModel
	err := conn.First(&m, 42).Error
	require.True(t, IsNotFound(err))
	require.False(t, IsNotFound(errors.New("other")))
}
