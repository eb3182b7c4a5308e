package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"laundrypro/internal/config"
	"laundrypro/internal/infrastructure/database"
	"laundrypro/internal/infrastructure/mysql"
	"laundrypro/internal/infrastructure/sqlite"
)

// SetupTestDB returns an in-memory SQLite database with the schema applied.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	return openSQLite(t, ":memory:", 1)
}

// SetupFileTestDB returns a WAL-mode SQLite database in a temporary
// directory with up to conns connections, so transactions really run side by
// side. It is closed when the test ends.
func SetupFileTestDB(t *testing.T, conns int) *sql.DB {
	t.Helper()
	return openSQLite(t, filepath.Join(t.TempDir(), "laundrypro.db"), conns)
}

func openSQLite(t *testing.T, path string, conns int) *sql.DB {
	t.Helper()

	db, err := sqlite.NewConnection(path, conns)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.ApplyMigrations(context.Background(), db, database.SQLite); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return db
}

// SetupMySQLTestDB connects to a MySQL database called 'laundrypro_test' on
// localhost:3306 and skips the test when none is reachable.
func SetupMySQLTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := mysql.NewConnection(config.DatabaseConfig{
		Host:         "localhost",
		Port:         3306,
		User:         "root",
		Name:         "laundrypro_test",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	if err := database.ApplyMigrations(context.Background(), db, database.MySQL); err != nil {
		_ = db.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	clearTables(t, db)
	t.Cleanup(func() { CleanupTestDB(t, db) })
	return db
}

// CleanupTestDB empties every table and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	clearTables(t, db)
	_ = db.Close()
}

func clearTables(t *testing.T, db *sql.DB) {
	tables := []string{"OrderItems", "Orders", "Services", "Users"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// InsertUser seeds an identity record and returns its id.
func InsertUser(t *testing.T, db *sql.DB, phone, name, role string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO Users (id, phone, name, role, status, isVerified, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, 'active', 0, ?, ?)
	`, id, phone, name, role, now, now)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	return id
}

// InsertService seeds a catalog entry and returns its id.
func InsertService(t *testing.T, db *sql.DB, name string, price int64, active bool) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO Services (id, name, category, unit, price, active, isDeleted, createdAt, updatedAt)
		VALUES (?, ?, 'washing', 'kg', ?, ?, 0, ?, ?)
	`, id, name, decimal.NewFromInt(price), active, now, now)
	if err != nil {
		t.Fatalf("failed to insert service: %v", err)
	}
	return id
}

// InsertOrder seeds a bare order row, without items, and returns its id.
func InsertOrder(t *testing.T, db *sql.DB, customerID, staffID, status, total string, createdAt time.Time) string {
	t.Helper()

	id := uuid.NewString()
	createdAt = createdAt.UTC()
	_, err := db.Exec(`
		INSERT INTO Orders (id, customerId, staffId, status, totalPrice, isDeleted, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`, id, customerID, staffID, status, decimal.RequireFromString(total), createdAt, createdAt)
	if err != nil {
		t.Fatalf("failed to insert order: %v", err)
	}
	return id
}
