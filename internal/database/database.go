package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported drivers. The sqlite driver backs local development and tests.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Dialect reports which of the supported drivers db was opened with.
func Dialect(db *sql.DB) string {
	if _, ok := db.Driver().(*mysql.MySQLDriver); ok {
		return DriverMySQL
	}
	return DriverSQLite
}

// LockClause is appended to reads that must hold their rows until commit.
// SQLite has no row locks; its single writer already serializes the
// transaction.
func LockClause(db *sql.DB) string {
	if Dialect(db) == DriverMySQL {
		return " FOR UPDATE"
	}
	return ""
}

// OpenDB creates and configures a connection pool for the given driver and
// DSN, then pings it.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// 2. Configure the connection pool settings.
	switch driver {
	case DriverSQLite:
		if err := configureSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// 3. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

// configureSQLite applies the pragmas the schema relies on. SQLite allows a
// single writer, so the pool is pinned to one connection.
func configureSQLite(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	return nil
}
