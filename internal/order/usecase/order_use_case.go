package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"modernc.org/sqlite"

	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/order/service"
)

type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Caller, in service.CreateOrderInput) (*domain.Order, error)
	AddItem(ctx context.Context, actor domain.Caller, orderID string, ni service.NewItem) (*domain.Order, error)
	UpdateItem(ctx context.Context, actor domain.Caller, orderID, itemID string, patch domain.ItemPatch) (*domain.Order, error)
	DeleteItem(ctx context.Context, actor domain.Caller, orderID, itemID string) (*domain.Order, error)
	UpdateNote(ctx context.Context, actor domain.Caller, orderID string, note *string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Caller, orderID string, next domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, actor domain.Caller, orderID string) error
	RecalculateTotal(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error)
}

type CustomerLookup interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
}

type OrderUseCase struct {
	svc              OrderService
	customers        CustomerLookup
	logger           *zap.Logger
	maxRetryAttempts int
	backoff          time.Duration
}

func NewOrderUseCase(
	svc OrderService,
	customers CustomerLookup,
	logger *zap.Logger,
	maxRetryAttempts int,
) *OrderUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &OrderUseCase{
		svc:              svc,
		customers:        customers,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		backoff:          100 * time.Millisecond,
	}
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) (*domain.Order, error) {
	in, err := toCreateInput(req)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("create order started",
		zap.String("staffId", caller.ID),
		zap.String("role", string(caller.Role)),
		zap.Int("itemCount", len(in.Items)),
	)

	var created *domain.Order
	err = uc.withRetry(ctx, "", func() error {
		var err error
		created, err = uc.svc.CreateOrder(ctx, caller, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.svc.GetOrder(ctx, orderID)
}

// GetMyOrder returns an order only to the customer it belongs to. Other
// callers see it as missing.
func (uc *OrderUseCase) GetMyOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	o, err := uc.svc.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != caller.ID {
		return nil, apperrors.NewNotFoundError("order not found")
	}
	return o, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, q dto.ListOrdersQuery) (*domain.OrderPage, error) {
	f, p, err := parseListQuery(q)
	if err != nil {
		return nil, err
	}

	if q.CustomerPhone != "" {
		id, found, err := uc.customerIDByPhone(ctx, q.CustomerPhone)
		if err != nil {
			return nil, err
		}
		if !found {
			return emptyPage(p), nil
		}
		if f.CustomerID != "" && f.CustomerID != id {
			return emptyPage(p), nil
		}
		f.CustomerID = id
	}

	return uc.svc.ListOrders(ctx, f, p)
}

// ListMyOrders lists the caller's own orders. Customer, staff and phone
// filters from the query are ignored.
func (uc *OrderUseCase) ListMyOrders(ctx context.Context, caller domain.Caller, q dto.ListOrdersQuery) (*domain.OrderPage, error) {
	f, p, err := parseListQuery(dto.ListOrdersQuery{
		Status:    q.Status,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}
	f.CustomerID = caller.ID
	return uc.svc.ListOrders(ctx, f, p)
}

func (uc *OrderUseCase) ListByCustomer(ctx context.Context, customerID string, q dto.ListOrdersQuery) (*domain.OrderPage, error) {
	q.CustomerID = customerID
	q.CustomerPhone = ""
	return uc.ListOrders(ctx, q)
}

func (uc *OrderUseCase) ListByStaff(ctx context.Context, staffID string, q dto.ListOrdersQuery) (*domain.OrderPage, error) {
	q.StaffID = staffID
	return uc.ListOrders(ctx, q)
}

func (uc *OrderUseCase) SearchByPhone(ctx context.Context, phone string, q dto.ListOrdersQuery) (*domain.OrderPage, error) {
	if phone == "" {
		return nil, apperrors.NewValidationError("phone is required", apperrors.ValidationDetail{
			Field:   "phone",
			Message: "phone is required",
		})
	}
	q.CustomerPhone = phone
	q.CustomerID = ""
	return uc.ListOrders(ctx, q)
}

func (uc *OrderUseCase) UpdateNote(ctx context.Context, caller domain.Caller, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error) {
	note, err := validateOrderNote(req.Note)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, caller, orderID, "update note", func() (*domain.Order, error) {
		return uc.svc.UpdateNote(ctx, caller, orderID, note)
	})
}

func (uc *OrderUseCase) UpdateStatus(ctx context.Context, caller domain.Caller, orderID string, req dto.UpdateStatusRequest) (*domain.Order, error) {
	next := domain.OrderStatus(req.Status)
	if !next.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of pending, confirmed, processing, ready, delivering, completed, cancelled",
		})
	}
	return uc.mutate(ctx, caller, orderID, "update status", func() (*domain.Order, error) {
		return uc.svc.UpdateStatus(ctx, caller, orderID, next)
	})
}

func (uc *OrderUseCase) DeleteOrder(ctx context.Context, caller domain.Caller, orderID string) error {
	_, err := uc.mutate(ctx, caller, orderID, "delete order", func() (*domain.Order, error) {
		return nil, uc.svc.DeleteOrder(ctx, caller, orderID)
	})
	return err
}

func (uc *OrderUseCase) AddItem(ctx context.Context, caller domain.Caller, orderID string, req dto.CreateItemRequest) (*domain.Order, error) {
	ni, details := toNewItem("", req)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid item", details...)
	}
	return uc.mutate(ctx, caller, orderID, "add item", func() (*domain.Order, error) {
		return uc.svc.AddItem(ctx, caller, orderID, ni)
	})
}

func (uc *OrderUseCase) UpdateItem(ctx context.Context, caller domain.Caller, orderID, itemID string, req dto.UpdateItemRequest) (*domain.Order, error) {
	patch, err := toItemPatch(req)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, caller, orderID, "update item", func() (*domain.Order, error) {
		return uc.svc.UpdateItem(ctx, caller, orderID, itemID, patch)
	})
}

func (uc *OrderUseCase) DeleteItem(ctx context.Context, caller domain.Caller, orderID, itemID string) (*domain.Order, error) {
	return uc.mutate(ctx, caller, orderID, "delete item", func() (*domain.Order, error) {
		return uc.svc.DeleteItem(ctx, caller, orderID, itemID)
	})
}

func (uc *OrderUseCase) RecalculateTotal(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	return uc.mutate(ctx, caller, orderID, "recalculate total", func() (*domain.Order, error) {
		return uc.svc.RecalculateTotal(ctx, orderID)
	})
}

func (uc *OrderUseCase) mutate(ctx context.Context, caller domain.Caller, orderID, op string, fn func() (*domain.Order, error)) (*domain.Order, error) {
	uc.logger.Info(op+" started",
		zap.String("orderId", orderID),
		zap.String("callerId", caller.ID),
		zap.String("role", string(caller.Role)),
	)

	var result *domain.Order
	err := uc.withRetry(ctx, orderID, func() error {
		var err error
		result, err = fn()
		return err
	})
	if err != nil {
		if !apperrors.IsDomainError(err) {
			uc.logger.Error(op+" failed", zap.String("orderId", orderID), zap.Error(err))
		}
		return nil, err
	}

	uc.logger.Info(op+" completed", zap.String("orderId", orderID))
	return result, nil
}

// withRetry re-runs fn when the store reports a deadlock or lock wait
// timeout, with a growing jittered backoff between attempts.
func (uc *OrderUseCase) withRetry(ctx context.Context, orderID string, fn func() error) error {
	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isDeadlockError(err) {
			return err
		}
		if attempt == uc.maxRetryAttempts {
			break
		}

		base := uc.backoff * time.Duration(attempt)
		wait := time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))
		uc.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.String("orderId", orderID),
			zap.Duration("backoff", wait),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}

const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}
	return false
}

func (uc *OrderUseCase) customerIDByPhone(ctx context.Context, phone string) (string, bool, error) {
	u, err := uc.customers.FindByPhone(ctx, phone)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return "", false, nil
		}
		return "", false, err
	}
	return u.ID, true, nil
}

func emptyPage(p domain.Page) *domain.OrderPage {
	return &domain.OrderPage{Orders: []domain.Order{}, Pagination: domain.NewPagination(p, 0)}
}
