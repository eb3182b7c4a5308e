package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/identity"
	"laundrypro/internal/infrastructure/database"
)

type OrderRepository interface {
	Insert(ctx context.Context, q database.DBTX, o domain.Order) error
	FindByID(ctx context.Context, q database.DBTX, id string) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, error)
	Count(ctx context.Context, f domain.OrderFilter) (int, error)
	UpdateNote(ctx context.Context, q database.DBTX, id string, note *string, now time.Time) error
	UpdateStatus(ctx context.Context, q database.DBTX, o domain.Order) error
	UpdateTotalPrice(ctx context.Context, q database.DBTX, id string, total decimal.Decimal, now time.Time) error
	SoftDelete(ctx context.Context, q database.DBTX, id string, now time.Time) error
}

type OrderItemRepository interface {
	Insert(ctx context.Context, q database.DBTX, it domain.OrderItem) error
	FindByID(ctx context.Context, q database.DBTX, orderID, itemID string) (*domain.OrderItem, error)
	FindByOrderID(ctx context.Context, q database.DBTX, orderID string) ([]domain.OrderItem, error)
	FindByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error)
	Update(ctx context.Context, q database.DBTX, it domain.OrderItem) error
	SoftDelete(ctx context.Context, q database.DBTX, orderID, itemID string, now time.Time) error
	SoftDeleteByOrderID(ctx context.Context, q database.DBTX, orderID string, now time.Time) (int64, error)
	SumByOrderID(ctx context.Context, q database.DBTX, orderID string) (decimal.Decimal, error)
	CountLiveByOrderID(ctx context.Context, q database.DBTX, orderID string) (int, error)
}

// Catalog is the read-only view of the service catalog used when pricing lines.
type Catalog interface {
	Lookup(ctx context.Context, q database.DBTX, id string) (*domain.Service, error)
	GetServicesByIDs(ctx context.Context, q database.DBTX, ids []string) (found []domain.Service, notFoundIDs []string, err error)
}

type CustomerDirectory interface {
	FindOrCreateCustomer(ctx context.Context, q database.DBTX, info identity.ContactInfo) (*domain.User, error)
	GetCustomer(ctx context.Context, q database.DBTX, id string) (*domain.User, error)
}

type NewItem struct {
	ServiceID string
	Quantity  int
	UnitPrice *decimal.Decimal
	Note      *string
}

// CreateOrderInput names the customer either by id or by contact details.
type CreateOrderInput struct {
	CustomerID string
	Customer   *identity.ContactInfo
	Note       *string
	Items      []NewItem
}

type OrderService struct {
	db        database.TransactionManager
	dialect   database.Dialect
	orders    OrderRepository
	items     OrderItemRepository
	catalog   Catalog
	customers CustomerDirectory
	locks     *KeyedLocker
	logger    *zap.Logger
	txTimeout time.Duration
	now       func() time.Time
}

func NewOrderService(
	db database.TransactionManager,
	dialect database.Dialect,
	orders OrderRepository,
	items OrderItemRepository,
	catalog Catalog,
	customers CustomerDirectory,
	logger *zap.Logger,
	txTimeout time.Duration,
) *OrderService {
	return &OrderService{
		db:        db,
		dialect:   dialect,
		orders:    orders,
		items:     items,
		catalog:   catalog,
		customers: customers,
		locks:     NewKeyedLocker(),
		logger:    logger,
		txTimeout: txTimeout,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *OrderService) beginTx(ctx context.Context) (context.Context, context.CancelFunc, *sql.Tx, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	tx, err := s.db.BeginTx(txCtx, s.dialect.TxOptions())
	if err != nil {
		cancel()
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, nil, nil, err
	}
	return txCtx, cancel, tx, nil
}

// mutateOrder runs fn against the locked, live order inside one transaction
// and commits. The in-process lock is taken before the transaction so that
// callers on the same order queue here instead of inside the store.
func (s *OrderService) mutateOrder(ctx context.Context, orderID string, fn func(ctx context.Context, tx *sql.Tx, o *domain.Order) error) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	txCtx, cancel, tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	defer tx.Rollback()

	o, err := s.orders.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return err
	}

	if err := fn(txCtx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("orderId", orderID), zap.Error(err))
		return err
	}
	return nil
}

// refreshTotal recomputes the order total from its live lines inside tx.
func (s *OrderService) refreshTotal(ctx context.Context, tx *sql.Tx, orderID string, now time.Time) (decimal.Decimal, error) {
	total, err := s.items.SumByOrderID(ctx, tx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.orders.UpdateTotalPrice(ctx, tx, orderID, total, now); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func gate(actor domain.Caller, o *domain.Order) error {
	if !domain.CanMutate(actor.Role, o.Status) {
		return domain.ForbiddenForStatus(o.Status)
	}
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Caller, in CreateOrderInput) (*domain.Order, error) {
	if !domain.CanMutate(actor.Role, domain.InitialOrderStatus) {
		return nil, apperrors.NewForbiddenError("only staff or admin can create orders")
	}

	txCtx, cancel, tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer tx.Rollback()

	customer, err := s.resolveCustomer(txCtx, tx, in)
	if err != nil {
		return nil, err
	}

	services, err := s.resolveServices(txCtx, tx, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		StaffID:    actor.ID,
		Status:     domain.InitialOrderStatus,
		TotalPrice: decimal.Zero,
		Note:       in.Note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Insert(txCtx, tx, o); err != nil {
		return nil, err
	}

	for _, ni := range in.Items {
		it := domain.NewOrderItem(uuid.NewString(), o.ID, services[ni.ServiceID], ni.Quantity, ni.UnitPrice, ni.Note, now)
		if err := s.items.Insert(txCtx, tx, it); err != nil {
			return nil, err
		}
	}

	total, err := s.refreshTotal(txCtx, tx, o.ID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.String("orderId", o.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("orderId", o.ID),
		zap.String("customerId", customer.ID),
		zap.Int("itemCount", len(in.Items)),
		zap.String("totalPrice", total.String()),
	)

	return s.load(ctx, o.ID)
}

func (s *OrderService) resolveCustomer(ctx context.Context, tx *sql.Tx, in CreateOrderInput) (*domain.User, error) {
	if in.CustomerID != "" {
		return s.customers.GetCustomer(ctx, tx, in.CustomerID)
	}
	if in.Customer == nil {
		return nil, apperrors.NewValidationError("customer is required", apperrors.ValidationDetail{
			Field:   "customerId",
			Message: "customerId or customer contact details are required",
		})
	}
	return s.customers.FindOrCreateCustomer(ctx, tx, *in.Customer)
}

// resolveServices fetches every referenced catalog entry in one query and
// rejects missing or inactive ones.
func (s *OrderService) resolveServices(ctx context.Context, tx *sql.Tx, items []NewItem) (map[string]domain.Service, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ServiceID]; ok {
			continue
		}
		seen[it.ServiceID] = struct{}{}
		ids = append(ids, it.ServiceID)
	}

	found, notFound, err := s.catalog.GetServicesByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(notFound) > 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("services not found: %v", notFound))
	}

	byID := make(map[string]domain.Service, len(found))
	for _, svc := range found {
		if !svc.Active {
			return nil, apperrors.NewInvalidStateError(fmt.Sprintf("service %s is not active", svc.ID))
		}
		byID[svc.ID] = svc
	}
	return byID, nil
}

func (s *OrderService) AddItem(ctx context.Context, actor domain.Caller, orderID string, ni NewItem) (*domain.Order, error) {
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := gate(actor, o); err != nil {
			return err
		}

		n, err := s.items.CountLiveByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if n >= domain.MaxItemsPerOrder {
			return apperrors.NewInvalidStateError(fmt.Sprintf("order already has %d items", n))
		}

		svc, err := s.catalog.Lookup(ctx, tx, ni.ServiceID)
		if err != nil {
			return err
		}
		if !svc.Active {
			return apperrors.NewInvalidStateError(fmt.Sprintf("service %s is not active", svc.ID))
		}

		now := s.now()
		it := domain.NewOrderItem(uuid.NewString(), orderID, *svc, ni.Quantity, ni.UnitPrice, ni.Note, now)
		if err := s.items.Insert(ctx, tx, it); err != nil {
			return err
		}
		_, err = s.refreshTotal(ctx, tx, orderID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

func (s *OrderService) UpdateItem(ctx context.Context, actor domain.Caller, orderID, itemID string, patch domain.ItemPatch) (*domain.Order, error) {
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := gate(actor, o); err != nil {
			return err
		}

		it, err := s.items.FindByID(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		it.Apply(patch, now)
		if err := s.items.Update(ctx, tx, *it); err != nil {
			return err
		}
		_, err = s.refreshTotal(ctx, tx, orderID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

func (s *OrderService) DeleteItem(ctx context.Context, actor domain.Caller, orderID, itemID string) (*domain.Order, error) {
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := gate(actor, o); err != nil {
			return err
		}

		if _, err := s.items.FindByID(ctx, tx, orderID, itemID); err != nil {
			return err
		}
		n, err := s.items.CountLiveByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return apperrors.NewInvalidStateError("cannot delete the last item of an order; delete the order instead")
		}

		now := s.now()
		if err := s.items.SoftDelete(ctx, tx, orderID, itemID, now); err != nil {
			return err
		}
		_, err = s.refreshTotal(ctx, tx, orderID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

func (s *OrderService) UpdateNote(ctx context.Context, actor domain.Caller, orderID string, note *string) (*domain.Order, error) {
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := gate(actor, o); err != nil {
			return err
		}
		return s.orders.UpdateNote(ctx, tx, orderID, note, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Caller, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	var from domain.OrderStatus
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := domain.ValidateTransition(o.Status, next, actor.Role); err != nil {
			return err
		}
		from = o.Status
		o.ApplyStatus(next, s.now())
		return s.orders.UpdateStatus(ctx, tx, *o)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("orderId", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.String("role", string(actor.Role)),
	)
	return s.load(ctx, orderID)
}

// DeleteOrder soft-deletes the order and its live items together.
func (s *OrderService) DeleteOrder(ctx context.Context, actor domain.Caller, orderID string) error {
	return s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		if err := gate(actor, o); err != nil {
			return err
		}
		now := s.now()
		if _, err := s.items.SoftDeleteByOrderID(ctx, tx, orderID, now); err != nil {
			return err
		}
		return s.orders.SoftDelete(ctx, tx, orderID, now)
	})
}

// RecalculateTotal rewrites the stored total from the live items. It changes
// nothing when the two already agree, so it is safe to run at any time.
func (s *OrderService) RecalculateTotal(ctx context.Context, orderID string) (*domain.Order, error) {
	err := s.mutateOrder(ctx, orderID, func(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
		total, err := s.items.SumByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if total.Equal(o.TotalPrice) {
			return nil
		}
		s.logger.Warn("order total repaired",
			zap.String("orderId", orderID),
			zap.String("stored", o.TotalPrice.String()),
			zap.String("computed", total.String()),
		)
		return s.orders.UpdateTotalPrice(ctx, tx, orderID, total, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

// GetOrder returns the order with its live items, repairing the stored total
// first if it disagrees with them.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.TotalMatchesItems() {
		return o, nil
	}
	return s.RecalculateTotal(ctx, orderID)
}

func (s *OrderService) load(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListOrders returns one page of orders with their items attached.
func (s *OrderService) ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error) {
	var (
		orders []domain.Order
		total  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.List(gctx, f, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.orders.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	byOrder, err := s.items.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}

	return &domain.OrderPage{
		Orders:     orders,
		Pagination: domain.NewPagination(p, total),
	}, nil
}
