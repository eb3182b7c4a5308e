package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const DriverName = "sqlite"

const memoryPath = ":memory:"

// NewConnection opens an embedded SQLite store at path (":memory:" for a
// throwaway database). File stores run in WAL mode with up to maxOpenConns
// connections; every connection gets its pragmas from the DSN. An in-memory
// database lives only as long as its connection, so it is kept to one.
func NewConnection(path string, maxOpenConns int) (*sql.DB, error) {
	if path == memoryPath || maxOpenConns < 1 {
		maxOpenConns = 1
	}

	db, err := sql.Open(DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// DSN builds the driver connection string for path.
func DSN(path string) string {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != memoryPath {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	return dsn
}
