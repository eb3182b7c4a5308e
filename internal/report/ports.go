package report

import (
	"context"

	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
)

type UseCase interface {
	GetOrderStats(ctx context.Context, q dto.StatsQuery) (*domain.OrderStats, error)
}

type Repository interface {
	StatusTotals(ctx context.Context, r domain.DateRange) ([]domain.StatusSummary, error)
	CompletedOrders(ctx context.Context, r domain.DateRange) ([]domain.CompletedOrderRow, error)
}

// UserDirectory supplies the display fields joined onto top customers.
type UserDirectory interface {
	UsersByID(ctx context.Context, ids []string) (map[string]domain.User, error)
}
