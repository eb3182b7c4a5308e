package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKey_MySQL(t *testing.T) {
	dup := fmt.Errorf("inserting user: %w", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(&mysqldriver.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
	assert.False(t, IsDuplicateKey(nil))
}

func TestIsDuplicateKey_SQLite(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, ApplyMigrations(ctx, db, SQLite))

	insert := func(id string) error {
		now := time.Now().UTC()
		_, err := db.ExecContext(ctx, `
			INSERT INTO Users (id, phone, name, role, status, isVerified, createdAt, updatedAt)
			VALUES (?, '+84900000009', 'Lan', 'customer', 'active', 0, ?, ?)`, id, now, now)
		return err
	}

	require.NoError(t, insert("user-1"))

	err := insert("user-2")
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err), "same phone")

	err = insert("user-1")
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err), "same id")
}
