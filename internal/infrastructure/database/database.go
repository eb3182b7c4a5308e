package database

import (
	"context"
	"database/sql"
	"fmt"

	"laundrypro/internal/config"
	"laundrypro/internal/infrastructure/mysql"
	"laundrypro/internal/infrastructure/sqlite"
)

type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// ForUpdate returns the row-lock suffix for SELECT statements run inside a
// transaction. SQLite serializes writers at the database level instead.
func (d Dialect) ForUpdate() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// TxOptions returns the options used for read-modify-write transactions.
func (d Dialect) TxOptions() *sql.TxOptions {
	if d == MySQL {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	return nil
}

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run the
// same statement in or out of a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Open connects to the configured store and applies pending migrations when
// AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Driver {
	case config.DriverMySQL:
		db, err = mysql.NewConnection(cfg)
		dialect = MySQL
	case config.DriverSQLite:
		db, err = sqlite.NewConnection(cfg.Path, cfg.MaxOpenConns)
		dialect = SQLite
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, "", err
	}

	if cfg.MigrateOnStart() {
		if err := ApplyMigrations(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, "", fmt.Errorf("applying migrations: %w", err)
		}
	}

	return db, dialect, nil
}
