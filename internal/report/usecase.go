package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
	apperrors "laundrypro/internal/errors"
)

type reportUseCase struct {
	repo   Repository
	users  UserDirectory
	logger *zap.Logger
}

func NewUseCase(repo Repository, users UserDirectory, logger *zap.Logger) UseCase {
	return &reportUseCase{repo: repo, users: users, logger: logger}
}

func (uc *reportUseCase) GetOrderStats(ctx context.Context, q dto.StatsQuery) (*domain.OrderStats, error) {
	dr, details := commons.ParseDateRange(q.StartDate, q.EndDate)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid date range", details...)
	}

	var (
		statuses  []domain.StatusSummary
		completed []domain.CompletedOrderRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statuses, err = uc.repo.StatusTotals(gctx, dr)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = uc.repo.CompletedOrders(gctx, dr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading order stats: %w", err)
	}

	stats := Aggregate(statuses, completed)

	if len(stats.TopCustomers) > 0 {
		ids := make([]string, len(stats.TopCustomers))
		for i, c := range stats.TopCustomers {
			ids[i] = c.CustomerID
		}
		users, err := uc.users.UsersByID(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading top customers: %w", err)
		}
		for i := range stats.TopCustomers {
			if u, ok := users[stats.TopCustomers[i].CustomerID]; ok {
				stats.TopCustomers[i].Name = u.Name
				stats.TopCustomers[i].Phone = u.Phone
			}
		}
	}

	uc.logger.Debug("order stats computed",
		zap.Int("completedOrders", stats.Revenue.TotalOrders),
		zap.Int("dailyBuckets", len(stats.Daily)),
	)
	return &stats, nil
}
