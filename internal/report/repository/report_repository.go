package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"laundrypro/internal/domain"
)

// SQLRepository runs the read-only reporting queries over Orders.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func rangeClause(r domain.DateRange, extra ...string) (string, []interface{}) {
	conds := append([]string{"isDeleted = 0"}, extra...)
	var args []interface{}

	if r.From != nil {
		conds = append(conds, "createdAt >= ?")
		args = append(args, r.From.UTC())
	}
	if r.To != nil {
		conds = append(conds, "createdAt <= ?")
		args = append(args, r.To.UTC())
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// StatusTotals counts live orders and sums their totals per status.
func (r *SQLRepository) StatusTotals(ctx context.Context, dr domain.DateRange) ([]domain.StatusSummary, error) {
	where, args := rangeClause(dr)

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(totalPrice), 0)
		FROM Orders`+where+`
		GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying status totals: %w", err)
	}
	defer rows.Close()

	totals := []domain.StatusSummary{}
	for rows.Next() {
		var s domain.StatusSummary
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scanning status totals row: %w", err)
		}
		s.TotalRevenue = s.TotalRevenue.Round(2)
		totals = append(totals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status totals rows: %w", err)
	}
	return totals, nil
}

// CompletedOrders returns the live completed orders created in dr, newest
// first.
func (r *SQLRepository) CompletedOrders(ctx context.Context, dr domain.DateRange) ([]domain.CompletedOrderRow, error) {
	where, args := rangeClause(dr, "status = ?")
	args = append([]interface{}{domain.OrderStatusCompleted}, args...)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customerId, totalPrice, createdAt
		FROM Orders`+where+`
		ORDER BY createdAt DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying completed orders: %w", err)
	}
	defer rows.Close()

	out := []domain.CompletedOrderRow{}
	for rows.Next() {
		var row domain.CompletedOrderRow
		if err := rows.Scan(&row.OrderID, &row.CustomerID, &row.TotalPrice, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning completed order row: %w", err)
		}
		row.CreatedAt = row.CreatedAt.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completed order rows: %w", err)
	}
	return out, nil
}
