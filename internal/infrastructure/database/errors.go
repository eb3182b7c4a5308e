package database

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	sqlitedriver "modernc.org/sqlite"
)

const (
	mysqlDuplicateEntry     = 1062
	sqliteConstraintPrimary = 1555
	sqliteConstraintUnique  = 2067
)

// IsDuplicateKey reports whether err is a primary key or unique index
// violation from either store.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlitedriver.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimary
	}
	return false
}
