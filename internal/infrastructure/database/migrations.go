package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Migration holds the statements for one schema version, per dialect.
type Migration struct {
	Version string
	MySQL   []string
	SQLite  []string
}

func (m Migration) statements(d Dialect) []string {
	if d == MySQL {
		return m.MySQL
	}
	return m.SQLite
}

var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		MySQL:   mysqlV1,
		SQLite:  sqliteV1,
	},
}

var mysqlV1 = []string{
	`CREATE TABLE IF NOT EXISTS Users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		phone VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(150) NULL,
		address VARCHAR(500) NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'customer',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		isVerified TINYINT(1) NOT NULL DEFAULT 0,
		createdAt DATETIME(3) NOT NULL,
		updatedAt DATETIME(3) NOT NULL,
		INDEX idx_users_role (role)
	)`,
	`CREATE TABLE IF NOT EXISTS Services (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		category VARCHAR(100) NOT NULL,
		unit VARCHAR(50) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		isDeleted TINYINT(1) NOT NULL DEFAULT 0,
		createdAt DATETIME(3) NOT NULL,
		updatedAt DATETIME(3) NOT NULL,
		INDEX idx_services_category (category),
		INDEX idx_services_active (active, isDeleted)
	)`,
	`CREATE TABLE IF NOT EXISTS Orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		customerId CHAR(36) NOT NULL,
		staffId CHAR(36) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		totalPrice DECIMAL(18,2) NOT NULL DEFAULT 0.00,
		note VARCHAR(500) NULL,
		completedAt DATETIME(3) NULL,
		cancelledAt DATETIME(3) NULL,
		isDeleted TINYINT(1) NOT NULL DEFAULT 0,
		createdAt DATETIME(3) NOT NULL,
		updatedAt DATETIME(3) NOT NULL,
		FOREIGN KEY (customerId) REFERENCES Users(id),
		FOREIGN KEY (staffId) REFERENCES Users(id),
		INDEX idx_orders_customer (customerId, isDeleted),
		INDEX idx_orders_staff (staffId, isDeleted),
		INDEX idx_orders_status_created (status, createdAt)
	)`,
	`CREATE TABLE IF NOT EXISTS OrderItems (
		id CHAR(36) NOT NULL PRIMARY KEY,
		orderId CHAR(36) NOT NULL,
		serviceId CHAR(36) NOT NULL,
		serviceName VARCHAR(100) NOT NULL,
		serviceCategory VARCHAR(100) NOT NULL,
		serviceUnit VARCHAR(50) NOT NULL,
		servicePrice DECIMAL(12,2) NOT NULL,
		quantity INT NOT NULL,
		unitPrice DECIMAL(12,2) NOT NULL,
		totalPrice DECIMAL(18,2) NOT NULL,
		note VARCHAR(200) NULL,
		isDeleted TINYINT(1) NOT NULL DEFAULT 0,
		createdAt DATETIME(3) NOT NULL,
		updatedAt DATETIME(3) NOT NULL,
		FOREIGN KEY (orderId) REFERENCES Orders(id),
		FOREIGN KEY (serviceId) REFERENCES Services(id),
		INDEX idx_items_order (orderId, isDeleted)
	)`,
}

var sqliteV1 = []string{
	`CREATE TABLE IF NOT EXISTS Users (
		id TEXT NOT NULL PRIMARY KEY,
		phone TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NULL,
		address TEXT NULL,
		role TEXT NOT NULL DEFAULT 'customer',
		status TEXT NOT NULL DEFAULT 'active',
		isVerified BOOLEAN NOT NULL DEFAULT 0,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON Users(role)`,
	`CREATE TABLE IF NOT EXISTS Services (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		unit TEXT NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		isDeleted BOOLEAN NOT NULL DEFAULT 0,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_services_category ON Services(category)`,
	`CREATE TABLE IF NOT EXISTS Orders (
		id TEXT NOT NULL PRIMARY KEY,
		customerId TEXT NOT NULL REFERENCES Users(id),
		staffId TEXT NOT NULL REFERENCES Users(id),
		status TEXT NOT NULL DEFAULT 'pending',
		totalPrice DECIMAL(18,2) NOT NULL DEFAULT 0,
		note TEXT NULL,
		completedAt DATETIME NULL,
		cancelledAt DATETIME NULL,
		isDeleted BOOLEAN NOT NULL DEFAULT 0,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON Orders(customerId, isDeleted)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_staff ON Orders(staffId, isDeleted)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON Orders(status, createdAt)`,
	`CREATE TABLE IF NOT EXISTS OrderItems (
		id TEXT NOT NULL PRIMARY KEY,
		orderId TEXT NOT NULL REFERENCES Orders(id),
		serviceId TEXT NOT NULL REFERENCES Services(id),
		serviceName TEXT NOT NULL,
		serviceCategory TEXT NOT NULL,
		serviceUnit TEXT NOT NULL,
		servicePrice DECIMAL(12,2) NOT NULL,
		quantity INTEGER NOT NULL,
		unitPrice DECIMAL(12,2) NOT NULL,
		totalPrice DECIMAL(18,2) NOT NULL,
		note TEXT NULL,
		isDeleted BOOLEAN NOT NULL DEFAULT 0,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_order ON OrderItems(orderId, isDeleted)`,
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(32) NOT NULL PRIMARY KEY,
	appliedAt DATETIME NOT NULL
)`

// ApplyMigrations runs every migration newer than the highest recorded
// version, in semver order.
func ApplyMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(AllMigrations))
	for _, m := range AllMigrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %q: %w", m.Version, err)
		}
		if v.GreaterThan(current) {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return semver.MustParse(pending[i].Version).LessThan(semver.MustParse(pending[j].Version))
	})

	for _, m := range pending {
		for _, stmt := range m.statements(dialect) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s: %w", m.Version, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, appliedAt) VALUES (?, ?)`,
			m.Version, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied schema version, or 0.0.0.
func CurrentVersion(ctx context.Context, db DBTX) (*semver.Version, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("reading schema versions: %w", err)
	}
	defer rows.Close()

	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning schema version: %w", err)
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded version %q: %w", raw, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema versions: %w", err)
	}

	return current, nil
}
