// Package dbtest opens throwaway sqlite databases carrying the storefront
// schema for repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE brands (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		brand_id TEXT REFERENCES brands(id),
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		sku TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		stock_status TEXT NOT NULL DEFAULT 'in_stock',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_variants (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		name TEXT NOT NULL,
		sku TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		stock_status TEXT NOT NULL DEFAULT 'in_stock',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		attributes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_images (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		url TEXT NOT NULL,
		alt_text TEXT,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE carts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		session_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		expires_at DATETIME,
		metadata TEXT,
		converted_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX carts_active_user_idx ON carts(user_id) WHERE status = 'active' AND user_id IS NOT NULL`,
	`CREATE UNIQUE INDEX carts_active_session_idx ON carts(session_id) WHERE status = 'active' AND session_id IS NOT NULL`,
	`CREATE TABLE cart_line_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		variant_id TEXT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price_cents INTEGER NOT NULL,
		product_snapshot TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX cart_line_items_product_variant_idx ON cart_line_items(cart_id, product_id, COALESCE(variant_id, ''))`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		cart_id TEXT NOT NULL,
		user_id TEXT,
		session_id TEXT,
		guest_email TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		subtotal_cents INTEGER NOT NULL,
		tax_cents INTEGER NOT NULL,
		shipping_cents INTEGER NOT NULL,
		discount_cents INTEGER NOT NULL DEFAULT 0,
		total_cents INTEGER NOT NULL,
		billing_address TEXT NOT NULL,
		shipping_address TEXT NOT NULL,
		notes TEXT,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_line_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		variant_id TEXT,
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		total_price_cents INTEGER NOT NULL,
		product_snapshot TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// New opens an isolated in-memory database with the storefront schema.
// The pool is capped at one connection, so concurrent transactions queue
// behind each other the way row locks serialize them in Postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}
