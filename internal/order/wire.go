package order

import (
	"database/sql"

	"go.uber.org/zap"

	"laundrypro/internal/config"
	"laundrypro/internal/identity"
	"laundrypro/internal/infrastructure/database"
	"laundrypro/internal/order/controller"
	orderrepo "laundrypro/internal/order/repository"
	"laundrypro/internal/order/service"
	"laundrypro/internal/order/usecase"
)

func NewModule(
	db *sql.DB,
	dialect database.Dialect,
	cfg config.OrderConfig,
	catalog service.Catalog,
	customers *identity.Service,
	logger *zap.Logger,
) *controller.OrderController {
	orderRepo := orderrepo.NewSQLOrderRepository(db, dialect)
	orderItemRepo := orderrepo.NewSQLOrderItemRepository(db)

	orderSvc := service.NewOrderService(
		db,
		dialect,
		orderRepo,
		orderItemRepo,
		catalog,
		customers,
		logger,
		cfg.TxTimeout,
	)

	uc := usecase.NewOrderUseCase(orderSvc, customers, logger, cfg.MaxRetryAttempts)
	return controller.NewOrderController(uc, logger)
}
