package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"laundrypro/internal/domain"
	"laundrypro/internal/errors"
	"laundrypro/internal/infrastructure/database"
)

const orderColumns = `id, customerId, staffId, status, totalPrice, note,
	completedAt, cancelledAt, isDeleted, createdAt, updatedAt`

type SQLOrderRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLOrderRepository(db *sql.DB, dialect database.Dialect) *SQLOrderRepository {
	return &SQLOrderRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.StaffID, &o.Status, &o.TotalPrice, &o.Note,
		&o.CompletedAt, &o.CancelledAt, &o.IsDeleted, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *SQLOrderRepository) querier(q database.DBTX) database.DBTX {
	if q == nil {
		return r.db
	}
	return q
}

func (r *SQLOrderRepository) Insert(ctx context.Context, q database.DBTX, o domain.Order) error {
	_, err := r.querier(q).ExecContext(ctx, `
		INSERT INTO Orders (id, customerId, staffId, status, totalPrice, note,
		                    completedAt, cancelledAt, isDeleted, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		o.ID, o.CustomerID, o.StaffID, o.Status, o.TotalPrice, o.Note,
		o.CompletedAt, o.CancelledAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (r *SQLOrderRepository) FindByID(ctx context.Context, q database.DBTX, id string) (*domain.Order, error) {
	return r.findOne(ctx, r.querier(q), id, "")
}

// FindByIDForUpdate reads the order row and, on MySQL, holds its row lock
// until tx ends.
func (r *SQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	return r.findOne(ctx, tx, id, r.dialect.ForUpdate())
}

func (r *SQLOrderRepository) findOne(ctx context.Context, q database.DBTX, id, suffix string) (*domain.Order, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM Orders
		WHERE id = ? AND isDeleted = 0`+suffix, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return &o, nil
}

func whereClause(f domain.OrderFilter) (string, []interface{}) {
	conds := []string{"isDeleted = 0"}
	var args []interface{}

	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *f.Status)
	}
	if f.CustomerID != "" {
		conds = append(conds, "customerId = ?")
		args = append(args, f.CustomerID)
	}
	if f.StaffID != "" {
		conds = append(conds, "staffId = ?")
		args = append(args, f.StaffID)
	}
	if f.From != nil {
		conds = append(conds, "createdAt >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conds = append(conds, "createdAt <= ?")
		args = append(args, f.To.UTC())
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of live orders, newest first. Items are not loaded.
func (r *SQLOrderRepository) List(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, error) {
	where, args := whereClause(f)
	args = append(args, p.Limit, p.Offset())

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM Orders`+where+` ORDER BY createdAt DESC, id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

func (r *SQLOrderRepository) Count(ctx context.Context, f domain.OrderFilter) (int, error) {
	where, args := whereClause(f)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Orders`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func (r *SQLOrderRepository) UpdateNote(ctx context.Context, q database.DBTX, id string, note *string, now time.Time) error {
	res, err := r.querier(q).ExecContext(ctx,
		`UPDATE Orders SET note = ?, updatedAt = ? WHERE id = ? AND isDeleted = 0`,
		note, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating order note: %w", err)
	}
	return requireOrderAffected(res, id)
}

// UpdateStatus writes the status together with its completion and
// cancellation stamps.
func (r *SQLOrderRepository) UpdateStatus(ctx context.Context, q database.DBTX, o domain.Order) error {
	res, err := r.querier(q).ExecContext(ctx, `
		UPDATE Orders
		SET status = ?, completedAt = ?, cancelledAt = ?, updatedAt = ?
		WHERE id = ? AND isDeleted = 0`,
		o.Status, o.CompletedAt, o.CancelledAt, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return requireOrderAffected(res, o.ID)
}

func (r *SQLOrderRepository) UpdateTotalPrice(ctx context.Context, q database.DBTX, id string, total decimal.Decimal, now time.Time) error {
	res, err := r.querier(q).ExecContext(ctx,
		`UPDATE Orders SET totalPrice = ?, updatedAt = ? WHERE id = ? AND isDeleted = 0`,
		total, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating order total price: %w", err)
	}
	return requireOrderAffected(res, id)
}

func (r *SQLOrderRepository) SoftDelete(ctx context.Context, q database.DBTX, id string, now time.Time) error {
	res, err := r.querier(q).ExecContext(ctx,
		`UPDATE Orders SET isDeleted = 1, updatedAt = ? WHERE id = ? AND isDeleted = 0`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return requireOrderAffected(res, id)
}

func requireOrderAffected(res sql.Result, id string) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	return nil
}
