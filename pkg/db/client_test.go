package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "doomed"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Where("name = ?", "doomed").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back, found %d rows", count)
	}
}

func TestNewOpensSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, config.DBConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"}, logger.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := New(ctx, config.DBConfig{Driver: "postgres"}, nil); err == nil {
		t.Fatal("expected missing DSN to fail")
	}
}

func TestGormLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})
	gl := newGormLogger(logg, 50*time.Millisecond)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), stmt, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast queries and not-found lookups should stay quiet: %s", buf.String())
	}

	gl.Trace(ctx, time.Now(), stmt, errors.New("syntax error"))
	if !bytes.Contains(buf.Bytes(), []byte("db.query_failed")) || !bytes.Contains(buf.Bytes(), []byte("SELECT 1")) {
		t.Fatalf("expected failure entry with sql: %s", buf.String())
	}

	buf.Reset()
	gl.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	if !bytes.Contains(buf.Bytes(), []byte("db.query_slow")) {
		t.Fatalf("expected slow query entry: %s", buf.String())
	}

	buf.Reset()
	gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("ignored"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should suppress output: %s", buf.String())
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestForUpdateLoadsRowInsideTx(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	ctx := context.Background()

	seed := testModel{Name: "locked"}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		var row testModel
		if err := tx.Scopes(ForUpdate).Where("id = ?", seed.ID).First(&row).Error; err != nil {
			return err
		}
		return tx.Model(&row).Update("name", "updated").Error
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	var got testModel
	if err := db.First(&got, seed.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Name != "updated" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	if !IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "carts_active_user_idx"`), "carts_active_user_idx") {
		t.Fatal("expected postgres message to match")
	}
	if IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "other"`), "carts_active_user_idx") {
		t.Fatal("expected constraint mismatch to be rejected")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: carts.user_id"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}, "orders_order_number_key") {
		t.Fatal("expected pgx error to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
}
