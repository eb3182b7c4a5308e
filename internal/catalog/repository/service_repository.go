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

const serviceColumns = `id, name, category, unit, price, active, isDeleted, createdAt, updatedAt`

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanService(row rowScanner) (domain.Service, error) {
	var s domain.Service
	err := row.Scan(
		&s.ID, &s.Name, &s.Category, &s.Unit, &s.Price,
		&s.Active, &s.IsDeleted, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// FindByID returns a live (not deleted) catalog entry, active or not. q may be
// a transaction so the lookup sees the same snapshot as the caller.
func (r *SQLRepository) FindByID(ctx context.Context, q database.DBTX, id string) (*domain.Service, error) {
	if q == nil {
		q = r.db
	}

	row := q.QueryRowContext(ctx, `
		SELECT `+serviceColumns+`
		FROM Services
		WHERE id = ? AND isDeleted = 0`, id)

	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying service: %w", err)
	}
	return &s, nil
}

// FindByIDs returns the live entries among ids. Missing ids are simply absent
// from the result.
func (r *SQLRepository) FindByIDs(ctx context.Context, q database.DBTX, ids []string) ([]domain.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if q == nil {
		q = r.db
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT `+serviceColumns+`
		FROM Services
		WHERE id IN (%s)
		  AND isDeleted = 0`,
		strings.Join(placeholders, ", "),
	)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service row: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service rows: %w", err)
	}

	return services, nil
}

func (r *SQLRepository) List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	conds := []string{"isDeleted = 0"}
	var args []interface{}

	if filter.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := `SELECT ` + serviceColumns + ` FROM Services WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY category ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()

	services := []domain.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service row: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service rows: %w", err)
	}

	return services, nil
}

func (r *SQLRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM Services
		WHERE isDeleted = 0 AND active = 1
		ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}

func (r *SQLRepository) Insert(ctx context.Context, s domain.Service) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO Services (id, name, category, unit, price, active, isDeleted, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		s.ID, s.Name, s.Category, s.Unit, s.Price, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting service: %w", err)
	}
	return nil
}

// Update writes only the fields set in patch. The column list is fixed here,
// never derived from input.
func (r *SQLRepository) Update(ctx context.Context, id string, patch domain.ServicePatch, now time.Time) error {
	sets := []string{"updatedAt = ?"}
	args := []interface{}{now}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *patch.Unit)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *patch.Active)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE Services SET `+strings.Join(sets, ", ")+` WHERE id = ? AND isDeleted = 0`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating service: %w", err)
	}
	return requireAffected(res, id)
}

func (r *SQLRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE Services
		SET isDeleted = 1, active = 0, updatedAt = ?
		WHERE id = ? AND isDeleted = 0`, now, id)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service %s not found", id))
	}
	return nil
}
