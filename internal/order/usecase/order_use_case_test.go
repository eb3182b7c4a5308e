package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/order/service"
)

func createDeadlockError() error {
	return &mysql.MySQLError{Number: 1213}
}

type mockOrderService struct {
	CreateOrderFunc      func(ctx context.Context, actor domain.Caller, in service.CreateOrderInput) (*domain.Order, error)
	AddItemFunc          func(ctx context.Context, actor domain.Caller, orderID string, ni service.NewItem) (*domain.Order, error)
	UpdateItemFunc       func(ctx context.Context, actor domain.Caller, orderID, itemID string, patch domain.ItemPatch) (*domain.Order, error)
	DeleteItemFunc       func(ctx context.Context, actor domain.Caller, orderID, itemID string) (*domain.Order, error)
	UpdateNoteFunc       func(ctx context.Context, actor domain.Caller, orderID string, note *string) (*domain.Order, error)
	UpdateStatusFunc     func(ctx context.Context, actor domain.Caller, orderID string, next domain.OrderStatus) (*domain.Order, error)
	DeleteOrderFunc      func(ctx context.Context, actor domain.Caller, orderID string) error
	RecalculateTotalFunc func(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderFunc         func(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersFunc       func(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, actor domain.Caller, in service.CreateOrderInput) (*domain.Order, error) {
	return m.CreateOrderFunc(ctx, actor, in)
}

func (m *mockOrderService) AddItem(ctx context.Context, actor domain.Caller, orderID string, ni service.NewItem) (*domain.Order, error) {
	return m.AddItemFunc(ctx, actor, orderID, ni)
}

func (m *mockOrderService) UpdateItem(ctx context.Context, actor domain.Caller, orderID, itemID string, patch domain.ItemPatch) (*domain.Order, error) {
	return m.UpdateItemFunc(ctx, actor, orderID, itemID, patch)
}

func (m *mockOrderService) DeleteItem(ctx context.Context, actor domain.Caller, orderID, itemID string) (*domain.Order, error) {
	return m.DeleteItemFunc(ctx, actor, orderID, itemID)
}

func (m *mockOrderService) UpdateNote(ctx context.Context, actor domain.Caller, orderID string, note *string) (*domain.Order, error) {
	return m.UpdateNoteFunc(ctx, actor, orderID, note)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, actor domain.Caller, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	return m.UpdateStatusFunc(ctx, actor, orderID, next)
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, actor domain.Caller, orderID string) error {
	return m.DeleteOrderFunc(ctx, actor, orderID)
}

func (m *mockOrderService) RecalculateTotal(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.RecalculateTotalFunc(ctx, orderID)
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, orderID)
}

func (m *mockOrderService) ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error) {
	return m.ListOrdersFunc(ctx, f, p)
}

type mockCustomerLookup struct {
	FindByPhoneFunc func(ctx context.Context, phone string) (*domain.User, error)
}

func (m *mockCustomerLookup) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return m.FindByPhoneFunc(ctx, phone)
}

func newTestUseCase(svc OrderService, customers CustomerLookup) *OrderUseCase {
	uc := NewOrderUseCase(svc, customers, zap.NewNop(), 3)
	uc.backoff = time.Millisecond
	return uc
}

var staff = domain.Caller{ID: "staff-1", Role: domain.RoleStaff}

func validCreateRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Customer: &dto.CustomerContact{Phone: "0901234567", Name: "Lan"},
		Items:    []dto.CreateItemRequest{{ServiceID: "svc-1", Quantity: 5}},
	}
}

func TestCreateOrder_MapsRequest(t *testing.T) {
	price := decimal.RequireFromString("19999.999")
	svc := &mockOrderService{
		CreateOrderFunc: func(ctx context.Context, actor domain.Caller, in service.CreateOrderInput) (*domain.Order, error) {
			assert.Equal(t, staff, actor)
			require.NotNil(t, in.Customer)
			assert.Equal(t, "Lan", in.Customer.Name)
			require.Len(t, in.Items, 2)
			assert.Nil(t, in.Items[0].UnitPrice)
			assert.Equal(t, "20000", in.Items[1].UnitPrice.String())
			return &domain.Order{ID: "order-1"}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	req := validCreateRequest()
	req.Items = append(req.Items, dto.CreateItemRequest{ServiceID: "svc-2", Quantity: 2, UnitPrice: &price})

	o, err := uc.CreateOrder(context.Background(), staff, req)
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}

func TestCreateOrder_ValidationNeverReachesService(t *testing.T) {
	uc := newTestUseCase(&mockOrderService{}, nil)
	negative := decimal.NewFromInt(-1)
	longNote := string(make([]rune, domain.MaxOrderNoteLength+1))

	tests := []struct {
		name   string
		mutate func(r *dto.CreateOrderRequest)
		field  string
	}{
		{"no customer", func(r *dto.CreateOrderRequest) { r.Customer = nil }, "customerId"},
		{"no items", func(r *dto.CreateOrderRequest) { r.Items = nil }, "items"},
		{"too many items", func(r *dto.CreateOrderRequest) {
			r.Items = make([]dto.CreateItemRequest, domain.MaxItemsPerOrder+1)
		}, "items"},
		{"zero quantity", func(r *dto.CreateOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"huge quantity", func(r *dto.CreateOrderRequest) { r.Items[0].Quantity = 10001 }, "items[0].quantity"},
		{"negative price", func(r *dto.CreateOrderRequest) { r.Items[0].UnitPrice = &negative }, "items[0].unitPrice"},
		{"missing service", func(r *dto.CreateOrderRequest) { r.Items[0].ServiceID = " " }, "items[0].serviceId"},
		{"long note", func(r *dto.CreateOrderRequest) { r.Note = &longNote }, "note"},
		{"missing phone", func(r *dto.CreateOrderRequest) { r.Customer.Phone = "" }, "customer.phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			_, err := uc.CreateOrder(context.Background(), staff, req)
			ve, ok := apperrors.IsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)

			var fields []string
			for _, d := range ve.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestMutation_RetriesDeadlock(t *testing.T) {
	calls := 0
	svc := &mockOrderService{
		AddItemFunc: func(ctx context.Context, actor domain.Caller, orderID string, ni service.NewItem) (*domain.Order, error) {
			calls++
			if calls < 3 {
				return nil, fmt.Errorf("inserting order item: %w", createDeadlockError())
			}
			return &domain.Order{ID: orderID}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	o, err := uc.AddItem(context.Background(), staff, "order-1", dto.CreateItemRequest{ServiceID: "svc-1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, 3, calls)
}

func TestMutation_DeadlockExhausted(t *testing.T) {
	calls := 0
	svc := &mockOrderService{
		DeleteOrderFunc: func(ctx context.Context, actor domain.Caller, orderID string) error {
			calls++
			return &mysql.MySQLError{Number: 1205}
		},
	}
	uc := newTestUseCase(svc, nil)

	err := uc.DeleteOrder(context.Background(), staff, "order-1")
	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok, "expected DeadlockError, got %v", err)
	assert.Equal(t, 3, calls)
}

func TestMutation_NonDeadlockNotRetried(t *testing.T) {
	calls := 0
	svc := &mockOrderService{
		DeleteItemFunc: func(ctx context.Context, actor domain.Caller, orderID, itemID string) (*domain.Order, error) {
			calls++
			return nil, domain.ForbiddenForStatus(domain.OrderStatusCompleted)
		},
	}
	uc := newTestUseCase(svc, nil)

	_, err := uc.DeleteItem(context.Background(), staff, "order-1", "item-1")
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestIsDeadlockError(t *testing.T) {
	assert.True(t, isDeadlockError(createDeadlockError()))
	assert.True(t, isDeadlockError(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, isDeadlockError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDeadlockError(errors.New("boom")))
	assert.False(t, isDeadlockError(nil))
}

func TestUpdateItem_Validation(t *testing.T) {
	uc := newTestUseCase(&mockOrderService{}, nil)

	_, err := uc.UpdateItem(context.Background(), staff, "o", "i", dto.UpdateItemRequest{})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok, "empty patch")

	zero := 0
	_, err = uc.UpdateItem(context.Background(), staff, "o", "i", dto.UpdateItemRequest{Quantity: &zero})
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok, "zero quantity")
}

func TestUpdateItem_EmptyNoteClearsIt(t *testing.T) {
	var got domain.ItemPatch
	svc := &mockOrderService{
		UpdateItemFunc: func(ctx context.Context, actor domain.Caller, orderID, itemID string, patch domain.ItemPatch) (*domain.Order, error) {
			got = patch
			return &domain.Order{ID: orderID}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	blank := "   "
	_, err := uc.UpdateItem(context.Background(), staff, "o", "i", dto.UpdateItemRequest{Note: &blank})
	require.NoError(t, err)
	assert.Nil(t, got.Note)
	assert.True(t, got.ClearNote)

	note := "no starch"
	_, err = uc.UpdateItem(context.Background(), staff, "o", "i", dto.UpdateItemRequest{Note: &note})
	require.NoError(t, err)
	require.NotNil(t, got.Note)
	assert.Equal(t, "no starch", *got.Note)
	assert.False(t, got.ClearNote)
}

func TestUpdateNote(t *testing.T) {
	var got *string
	svc := &mockOrderService{
		UpdateNoteFunc: func(ctx context.Context, actor domain.Caller, orderID string, note *string) (*domain.Order, error) {
			got = note
			return &domain.Order{ID: orderID, Note: note}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	_, err := uc.UpdateNote(context.Background(), staff, "o", dto.UpdateOrderRequest{})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok, "missing note")

	empty := ""
	_, err = uc.UpdateNote(context.Background(), staff, "o", dto.UpdateOrderRequest{Note: &empty})
	require.NoError(t, err)
	assert.Nil(t, got, "empty note clears it")
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	uc := newTestUseCase(&mockOrderService{}, nil)

	_, err := uc.UpdateStatus(context.Background(), staff, "o", dto.UpdateStatusRequest{Status: "washing"})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestGetMyOrder_OwnershipCheck(t *testing.T) {
	svc := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, orderID string) (*domain.Order, error) {
			return &domain.Order{ID: orderID, CustomerID: "cust-1"}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	o, err := uc.GetMyOrder(context.Background(), domain.Caller{ID: "cust-1", Role: domain.RoleCustomer}, "o")
	require.NoError(t, err)
	assert.Equal(t, "o", o.ID)

	_, err = uc.GetMyOrder(context.Background(), domain.Caller{ID: "cust-2", Role: domain.RoleCustomer}, "o")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestListMyOrders_ForcesCaller(t *testing.T) {
	svc := &mockOrderService{
		ListOrdersFunc: func(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error) {
			assert.Equal(t, "cust-1", f.CustomerID)
			assert.Empty(t, f.StaffID)
			return &domain.OrderPage{}, nil
		},
	}
	uc := newTestUseCase(svc, nil)

	_, err := uc.ListMyOrders(context.Background(), domain.Caller{ID: "cust-1", Role: domain.RoleCustomer},
		dto.ListOrdersQuery{CustomerID: "someone-else", StaffID: "staff-9"})
	require.NoError(t, err)
}

func TestListOrders_PhoneFilter(t *testing.T) {
	listed := false
	svc := &mockOrderService{
		ListOrdersFunc: func(ctx context.Context, f domain.OrderFilter, p domain.Page) (*domain.OrderPage, error) {
			listed = true
			assert.Equal(t, "cust-1", f.CustomerID)
			return &domain.OrderPage{}, nil
		},
	}
	customers := &mockCustomerLookup{
		FindByPhoneFunc: func(ctx context.Context, phone string) (*domain.User, error) {
			if phone == "0901234567" {
				return &domain.User{ID: "cust-1"}, nil
			}
			return nil, apperrors.NewNotFoundError("no user")
		},
	}
	uc := newTestUseCase(svc, customers)

	_, err := uc.SearchByPhone(context.Background(), "0901234567", dto.ListOrdersQuery{})
	require.NoError(t, err)
	assert.True(t, listed)

	listed = false
	page, err := uc.SearchByPhone(context.Background(), "0999999999", dto.ListOrdersQuery{Limit: "5"})
	require.NoError(t, err)
	assert.False(t, listed)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 5, page.Pagination.Limit)

	_, err = uc.SearchByPhone(context.Background(), "", dto.ListOrdersQuery{})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestListOrders_InvalidQuery(t *testing.T) {
	uc := newTestUseCase(&mockOrderService{}, nil)

	_, err := uc.ListOrders(context.Background(), dto.ListOrdersQuery{Status: "lost", Page: "0", StartDate: "yesterday"})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 3)
}
