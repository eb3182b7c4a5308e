package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/infrastructure/database"
)

const userColumns = `id, phone, name, email, address, role, status, isVerified, createdAt, updatedAt`

type SQLRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLRepository(db *sql.DB, dialect database.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Phone, &u.Name, &u.Email, &u.Address,
		&u.Role, &u.Status, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *SQLRepository) querier(q database.DBTX) database.DBTX {
	if q == nil {
		return r.db
	}
	return q
}

func (r *SQLRepository) FindByID(ctx context.Context, q database.DBTX, id string) (*domain.User, error) {
	row := r.querier(q).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM Users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// FindByPhone expects phone already in E.164 form.
func (r *SQLRepository) FindByPhone(ctx context.Context, q database.DBTX, phone string) (*domain.User, error) {
	return r.findByPhone(ctx, q, phone, "")
}

// FindByPhoneForUpdate is FindByPhone as a locking read. Inside a MySQL
// transaction it sees the latest committed row even when the transaction's
// snapshot predates it.
func (r *SQLRepository) FindByPhoneForUpdate(ctx context.Context, q database.DBTX, phone string) (*domain.User, error) {
	return r.findByPhone(ctx, q, phone, r.dialect.ForUpdate())
}

func (r *SQLRepository) findByPhone(ctx context.Context, q database.DBTX, phone, suffix string) (*domain.User, error) {
	row := r.querier(q).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM Users WHERE phone = ?`+suffix, phone)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with phone %s not found", phone))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by phone: %w", err)
	}
	return &u, nil
}

func (r *SQLRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM Users WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

func (r *SQLRepository) Insert(ctx context.Context, q database.DBTX, u domain.User) error {
	_, err := r.querier(q).ExecContext(ctx, `
		INSERT INTO Users (id, phone, name, email, address, role, status, isVerified, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Phone, u.Name, u.Email, u.Address, u.Role, u.Status, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// UpdateContact refreshes the display fields of an identity. Phone and role
// are never written here.
func (r *SQLRepository) UpdateContact(ctx context.Context, q database.DBTX, id, name string, address *string, now time.Time) error {
	_, err := r.querier(q).ExecContext(ctx, `
		UPDATE Users SET name = ?, address = ?, updatedAt = ? WHERE id = ?`,
		name, address, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating user contact: %w", err)
	}
	return nil
}
