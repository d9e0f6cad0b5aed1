package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ParseDatabaseURL maps a DATABASE_URL to a database/sql driver name and DSN.
func ParseDatabaseURL(dbURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return DriverPostgres, dbURL, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite URL has no path")
		}
		return DriverSQLite, sqliteDSN(path), nil
	case strings.HasPrefix(dbURL, "file:"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(dbURL, "file:")), nil
	default:
		return "", "", fmt.Errorf("unsupported database URL scheme")
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// InitDB opens and pings the database and returns the driver name it used.
func InitDB(dbURL string) (*sql.DB, string, error) {
	if dbURL == "" {
		return nil, "", fmt.Errorf("DATABASE_URL environment variable is required")
	}

	driver, dsn, err := ParseDatabaseURL(dbURL)
	if err != nil {
		return nil, "", err
	}

	if driver == DriverSQLite {
		if dir := filepath.Dir(strings.SplitN(dsn, "?", 2)[0]); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, driver, nil
}

// RunMigrations applies the schema for the given driver. Every statement is idempotent.
func RunMigrations(db *sql.DB, driver string) error {
	migrations := postgresMigrations
	if driver == DriverSQLite {
		migrations = sqliteMigrations
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		totp_secret TEXT,
		totp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		refresh_token VARCHAR(500) UNIQUE NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		auth_user_id UUID UNIQUE REFERENCES accounts(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL CHECK (name <> ''),
		email VARCHAR(255) UNIQUE,
		role VARCHAR(20) NOT NULL DEFAULT 'joiner' CHECK (role IN ('admin', 'joiner')),
		avatar_color VARCHAR(16) NOT NULL DEFAULT '#0ea5e9',
		photo_url TEXT,
		owner_id UUID REFERENCES users(id) ON DELETE CASCADE,
		is_owner BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		target_date DATE NOT NULL,
		target_amount NUMERIC NOT NULL CHECK (target_amount > 0),
		created_by UUID REFERENCES users(id) ON DELETE CASCADE,
		place_description TEXT,
		location VARCHAR(255),
		photos JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trip_members (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		current_savings NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(trip_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS savings_log (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		old_amount NUMERIC,
		new_amount NUMERIC,
		admin_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trip_share_links (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL UNIQUE REFERENCES trips(id) ON DELETE CASCADE,
		share_token VARCHAR(128) UNIQUE NOT NULL,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_account_id ON sessions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_owner_id ON users(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_created_by ON trips(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_members_trip_id ON trip_members(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_savings_log_trip_id ON savings_log(trip_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_trip_share_links_one_per_trip ON trip_share_links(trip_id)`,
}

// Amounts are TEXT in SQLite so decimal strings round-trip unchanged.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		totp_secret TEXT,
		totp_enabled BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		refresh_token TEXT UNIQUE NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		auth_user_id TEXT UNIQUE REFERENCES accounts(id) ON DELETE SET NULL,
		name TEXT NOT NULL CHECK (name <> ''),
		email TEXT UNIQUE,
		role TEXT NOT NULL DEFAULT 'joiner' CHECK (role IN ('admin', 'joiner')),
		avatar_color TEXT NOT NULL DEFAULT '#0ea5e9',
		photo_url TEXT,
		owner_id TEXT REFERENCES users(id) ON DELETE CASCADE,
		is_owner BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		target_date DATE NOT NULL,
		target_amount TEXT NOT NULL,
		created_by TEXT REFERENCES users(id) ON DELETE CASCADE,
		place_description TEXT,
		location TEXT,
		photos TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trip_members (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		current_savings TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(trip_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS savings_log (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		old_amount TEXT,
		new_amount TEXT,
		admin_id TEXT,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trip_share_links (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL UNIQUE REFERENCES trips(id) ON DELETE CASCADE,
		share_token TEXT UNIQUE NOT NULL,
		created_by TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_account_id ON sessions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_owner_id ON users(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_created_by ON trips(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_members_trip_id ON trip_members(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_savings_log_trip_id ON savings_log(trip_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_trip_share_links_one_per_trip ON trip_share_links(trip_id)`,
}
