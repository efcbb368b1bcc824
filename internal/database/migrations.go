package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = "1.0.0"

// primaryKey is the only DDL fragment that differs between the drivers.
var primaryKey = map[string]string{
	DriverMySQL:  "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
	DriverSQLite: "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// schema is applied statement by statement; the MySQL driver rejects
// multi-statement Exec calls by default.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version VARCHAR(32) NOT NULL PRIMARY KEY,
		applied_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id {{pk}},
		name VARCHAR(255) NOT NULL UNIQUE,
		shipping_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id {{pk}},
		user_id BIGINT NOT NULL,
		zone_id BIGINT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		phone_number VARCHAR(20) NOT NULL,
		full_address TEXT NOT NULL,
		more_details TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (zone_id) REFERENCES zones(id)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		image VARCHAR(500) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subcategories (
		id {{pk}},
		category_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS brands (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id {{pk}},
		category_id BIGINT NULL,
		subcategory_id BIGINT NULL,
		brand_id BIGINT NULL,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		image VARCHAR(500) NULL,
		buying_price DECIMAL(10,2) NULL,
		regular_price DECIMAL(10,2) NOT NULL,
		discount DECIMAL(5,2) NOT NULL DEFAULT 0,
		selling_price DECIMAL(10,2) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		is_trending BOOLEAN NOT NULL DEFAULT 0,
		is_new BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id),
		FOREIGN KEY (subcategory_id) REFERENCES subcategories(id),
		FOREIGN KEY (brand_id) REFERENCES brands(id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id {{pk}},
		product_id BIGINT NOT NULL,
		color VARCHAR(50) NOT NULL,
		hex_color VARCHAR(7) NULL,
		size VARCHAR(50) NULL,
		buying_price DECIMAL(10,2) NULL,
		regular_price DECIMAL(10,2) NULL,
		discount DECIMAL(5,2) NULL,
		selling_price DECIMAL(10,2) NULL,
		weight VARCHAR(100) NULL,
		quantity INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	)`,
	// variant_key folds "no variant" into 0 so the unique key also covers
	// variantless lines; NULLs never collide in a unique index.
	`CREATE TABLE IF NOT EXISTS cart_items (
		id {{pk}},
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		variant_id BIGINT NULL,
		variant_key BIGINT GENERATED ALWAYS AS (COALESCE(variant_id, 0)) VIRTUAL,
		quantity INT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, product_id, variant_key),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (variant_id) REFERENCES product_variants(id) ON DELETE CASCADE
	)`,
	// order_lines has no foreign key to products; lines outlive the
	// catalog rows they were priced from.
	`CREATE TABLE IF NOT EXISTS orders (
		id {{pk}},
		user_id BIGINT NOT NULL,
		address_id BIGINT NOT NULL,
		subtotal DECIMAL(10,2) NOT NULL,
		shipping DECIMAL(10,2) NOT NULL,
		total DECIMAL(10,2) NOT NULL,
		payment_code VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id {{pk}},
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		variant_id BIGINT NULL,
		product_name VARCHAR(255) NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		quantity INT NOT NULL,
		line_total DECIMAL(10,2) NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS order_events (
		id {{pk}},
		event_id VARCHAR(36) NOT NULL UNIQUE,
		order_id BIGINT NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload TEXT NOT NULL,
		attempts INT NOT NULL DEFAULT 0,
		last_error TEXT NULL,
		dispatched_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id {{pk}},
		product_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		rating INT NOT NULL,
		comment TEXT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS newsletter_subscriptions (
		id {{pk}},
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
}

// Migrate creates every table that does not exist yet and records the
// schema version. Running it twice is a no-op.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	pk, ok := primaryKey[driver]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{pk}}", pk)); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i, err)
		}
	}

	var version string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version WHERE version = ?", CurrentSchemaVersion).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx,
			"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			CurrentSchemaVersion, time.Now().UTC())
	}
	if err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}
	return nil
}
