// Package dbtest opens throwaway sqlite databases with the production
// schema applied and inserts fixtures for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated sqlite database that is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")

	db, err := database.OpenDB(ctx, database.DriverSQLite, "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))
	return db
}

func exec(t testing.TB, db *sql.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// CreateUser inserts a user with a fixed password hash.
func CreateUser(t testing.TB, db *sql.DB, email, role string) int64 {
	t.Helper()
	now := time.Now().UTC()
	return exec(t, db, `
		INSERT INTO users (first_name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"Test", "User", email, "x", role, now, now)
}

// CreateZone inserts a shipping zone.
func CreateZone(t testing.TB, db *sql.DB, name string, price float64) int64 {
	t.Helper()
	now := time.Now().UTC()
	return exec(t, db,
		"INSERT INTO zones (name, shipping_price, created_at, updated_at) VALUES (?, ?, ?, ?)",
		name, price, now, now)
}

// CreateAddress inserts an address; zoneID may be nil.
func CreateAddress(t testing.TB, db *sql.DB, userID int64, zoneID *int64) int64 {
	t.Helper()
	now := time.Now().UTC()
	phone := fmt.Sprintf("%08d", time.Now().UnixNano()%100000000)
	return exec(t, db, `
		INSERT INTO addresses (user_id, zone_id, first_name, last_name, phone_number, full_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, zoneID, "Test", "User", phone, "1 Main Street", now, now)
}

// CreateProduct inserts a product with a derived selling price.
func CreateProduct(t testing.TB, db *sql.DB, name string, regularPrice, discount float64, quantity int) int64 {
	t.Helper()
	now := time.Now().UTC()
	return exec(t, db, `
		INSERT INTO products (name, slug, description, buying_price, regular_price, discount, selling_price, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, name, "", regularPrice/2, regularPrice, discount, models.SellingPrice(regularPrice, discount), quantity, now, now)
}

// CreateVariant inserts a variant; a nil sellingPrice inherits the product price.
func CreateVariant(t testing.TB, db *sql.DB, productID int64, color string, sellingPrice *float64, quantity int) int64 {
	t.Helper()
	now := time.Now().UTC()
	return exec(t, db, `
		INSERT INTO product_variants (product_id, color, selling_price, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		productID, color, sellingPrice, quantity, now, now)
}

// AddCartLine inserts a cart line directly.
func AddCartLine(t testing.TB, db *sql.DB, userID, productID int64, variantID *int64, quantity int) int64 {
	t.Helper()
	now := time.Now().UTC()
	return exec(t, db, `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, productID, variantID, quantity, now, now)
}

// ProductQuantity reads products.quantity.
func ProductQuantity(t testing.TB, db *sql.DB, productID int64) int {
	t.Helper()
	var q int
	require.NoError(t, db.QueryRow("SELECT quantity FROM products WHERE id = ?", productID).Scan(&q))
	return q
}

// VariantQuantity reads product_variants.quantity.
func VariantQuantity(t testing.TB, db *sql.DB, variantID int64) int {
	t.Helper()
	var q int
	require.NoError(t, db.QueryRow("SELECT quantity FROM product_variants WHERE id = ?", variantID).Scan(&q))
	return q
}

// CountRows counts every row in table.
func CountRows(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
