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

const itemColumns = `id, orderId, serviceId, serviceName, serviceCategory, serviceUnit,
	servicePrice, quantity, unitPrice, totalPrice, note, isDeleted, createdAt, updatedAt`

type SQLOrderItemRepository struct {
	db *sql.DB
}

func NewSQLOrderItemRepository(db *sql.DB) *SQLOrderItemRepository {
	return &SQLOrderItemRepository{db: db}
}

func scanItem(row rowScanner) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ServiceID, &it.ServiceName, &it.ServiceCategory, &it.ServiceUnit,
		&it.ServicePrice, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Note,
		&it.IsDeleted, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

func (r *SQLOrderItemRepository) querier(q database.DBTX) database.DBTX {
	if q == nil {
		return r.db
	}
	return q
}

func (r *SQLOrderItemRepository) Insert(ctx context.Context, q database.DBTX, it domain.OrderItem) error {
	_, err := r.querier(q).ExecContext(ctx, `
		INSERT INTO OrderItems (id, orderId, serviceId, serviceName, serviceCategory, serviceUnit,
		                        servicePrice, quantity, unitPrice, totalPrice, note, isDeleted,
		                        createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		it.ID, it.OrderID, it.ServiceID, it.ServiceName, it.ServiceCategory, it.ServiceUnit,
		it.ServicePrice, it.Quantity, it.UnitPrice, it.TotalPrice, it.Note,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

// FindByID returns a live item only if it belongs to orderID.
func (r *SQLOrderItemRepository) FindByID(ctx context.Context, q database.DBTX, orderID, itemID string) (*domain.OrderItem, error) {
	row := r.querier(q).QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM OrderItems
		WHERE id = ? AND orderId = ? AND isDeleted = 0`, itemID, orderID)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("item %s not found in order %s", itemID, orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order item: %w", err)
	}
	return &it, nil
}

func (r *SQLOrderItemRepository) FindByOrderID(ctx context.Context, q database.DBTX, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.querier(q).QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM OrderItems
		WHERE orderId = ? AND isDeleted = 0
		ORDER BY createdAt ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	return collectItems(rows)
}

// FindByOrderIDs loads the live items of several orders in one query.
func (r *SQLOrderItemRepository) FindByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	byOrder := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return byOrder, nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+itemColumns+`
		FROM OrderItems
		WHERE orderId IN (%s) AND isDeleted = 0
		ORDER BY createdAt ASC, id ASC`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}

	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, nil
}

func collectItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order item rows: %w", err)
	}
	return items, nil
}

// Update writes the mutable line fields. Identity and snapshot columns are
// not part of the statement.
func (r *SQLOrderItemRepository) Update(ctx context.Context, q database.DBTX, it domain.OrderItem) error {
	res, err := r.querier(q).ExecContext(ctx, `
		UPDATE OrderItems
		SET quantity = ?, unitPrice = ?, totalPrice = ?, note = ?, updatedAt = ?
		WHERE id = ? AND orderId = ? AND isDeleted = 0`,
		it.Quantity, it.UnitPrice, it.TotalPrice, it.Note, it.UpdatedAt, it.ID, it.OrderID,
	)
	if err != nil {
		return fmt.Errorf("updating order item: %w", err)
	}
	return requireItemAffected(res, it.ID)
}

func (r *SQLOrderItemRepository) SoftDelete(ctx context.Context, q database.DBTX, orderID, itemID string, now time.Time) error {
	res, err := r.querier(q).ExecContext(ctx, `
		UPDATE OrderItems SET isDeleted = 1, updatedAt = ?
		WHERE id = ? AND orderId = ? AND isDeleted = 0`, now, itemID, orderID)
	if err != nil {
		return fmt.Errorf("deleting order item: %w", err)
	}
	return requireItemAffected(res, itemID)
}

func (r *SQLOrderItemRepository) SoftDeleteByOrderID(ctx context.Context, q database.DBTX, orderID string, now time.Time) (int64, error) {
	res, err := r.querier(q).ExecContext(ctx, `
		UPDATE OrderItems SET isDeleted = 1, updatedAt = ?
		WHERE orderId = ? AND isDeleted = 0`, now, orderID)
	if err != nil {
		return 0, fmt.Errorf("deleting order items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

// SumByOrderID totals the live lines of an order as stored.
func (r *SQLOrderItemRepository) SumByOrderID(ctx context.Context, q database.DBTX, orderID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.querier(q).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(totalPrice), 0)
		FROM OrderItems
		WHERE orderId = ? AND isDeleted = 0`, orderID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing order items: %w", err)
	}
	// SQLite sums NUMERIC columns as floating point.
	return sum.Round(2), nil
}

func (r *SQLOrderItemRepository) CountLiveByOrderID(ctx context.Context, q database.DBTX, orderID string) (int, error) {
	var n int
	err := r.querier(q).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM OrderItems WHERE orderId = ? AND isDeleted = 0`, orderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting order items: %w", err)
	}
	return n, nil
}

func requireItemAffected(res sql.Result, id string) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order item %s not found", id))
	}
	return nil
}
