package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"laundrypro/internal/catalog"
	catalogrepo "laundrypro/internal/catalog/repository"
	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/identity"
	identityrepo "laundrypro/internal/identity/repository"
	"laundrypro/internal/infrastructure/database"
	"laundrypro/internal/order/repository"
	"laundrypro/internal/testutil"
)

type env struct {
	db    *sql.DB
	svc   *OrderService
	staff domain.Caller
	admin domain.Caller
	s1    string
	s2    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvOn(t, testutil.SetupTestDB(t), database.SQLite)
}

func newEnvOn(t *testing.T, db *sql.DB, dialect database.Dialect) *env {
	t.Helper()

	svc := NewOrderService(
		db,
		dialect,
		repository.NewSQLOrderRepository(db, dialect),
		repository.NewSQLOrderItemRepository(db),
		catalog.NewService(catalogrepo.NewSQLRepository(db)),
		identity.NewService(identityrepo.NewSQLRepository(db, dialect), zap.NewNop()),
		zap.NewNop(),
		5*time.Second,
	)

	return &env{
		db:    db,
		svc:   svc,
		staff: domain.Caller{ID: testutil.InsertUser(t, db, "+84911000001", "Staff", "staff"), Role: domain.RoleStaff},
		admin: domain.Caller{ID: testutil.InsertUser(t, db, "+84911000002", "Admin", "admin"), Role: domain.RoleAdmin},
		s1:    testutil.InsertService(t, db, "Wash & fold", 15000, true),
		s2:    testutil.InsertService(t, db, "Dry clean", 30000, true),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := dec(v)
	return &d
}

func intPtr(i int) *int { return &i }

func (e *env) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := e.svc.CreateOrder(context.Background(), e.staff, CreateOrderInput{
		Customer: &identity.ContactInfo{Phone: "0901234567", Name: "Lan"},
		Items:    []NewItem{{ServiceID: e.s1, Quantity: 5}},
	})
	require.NoError(t, err)
	return o
}

// assertTotalConsistent checks the stored total against the live items as
// read straight from the store.
func (e *env) assertTotalConsistent(t *testing.T, orderID string) {
	t.Helper()
	var stored, sum decimal.Decimal
	require.NoError(t, e.db.QueryRow(`SELECT totalPrice FROM Orders WHERE id = ?`, orderID).Scan(&stored))
	require.NoError(t, e.db.QueryRow(
		`SELECT COALESCE(SUM(totalPrice), 0) FROM OrderItems WHERE orderId = ? AND isDeleted = 0`, orderID,
	).Scan(&sum))
	assert.True(t, stored.Equal(sum.Round(2)), "stored total %s != live sum %s", stored, sum)
}

func findItem(o *domain.Order, serviceID string) *domain.OrderItem {
	for i := range o.Items {
		if o.Items[i].ServiceID == serviceID {
			return &o.Items[i]
		}
	}
	return nil
}

func TestOrderLifecycle_Scenarios(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// A: new customer, one line at catalog price.
	o := e.createOrder(t)
	require.Len(t, o.Items, 1)
	first := o.Items[0]
	assert.True(t, first.UnitPrice.Equal(dec(15000)))
	assert.True(t, first.TotalPrice.Equal(dec(75000)))
	assert.True(t, o.TotalPrice.Equal(dec(75000)))
	assert.Equal(t, domain.InitialOrderStatus, o.Status)
	assert.Equal(t, e.staff.ID, o.StaffID)

	// B: second line with an explicit price.
	o, err := e.svc.AddItem(ctx, e.staff, o.ID, NewItem{ServiceID: e.s2, Quantity: 2, UnitPrice: decPtr(20000)})
	require.NoError(t, err)
	second := findItem(o, e.s2)
	require.NotNil(t, second)
	assert.True(t, second.TotalPrice.Equal(dec(40000)))
	assert.True(t, second.ServicePrice.Equal(dec(30000)), "tariff snapshot is kept")
	assert.True(t, o.TotalPrice.Equal(dec(115000)))

	// C: quantity 5 -> 3 on the first line.
	o, err = e.svc.UpdateItem(ctx, e.staff, o.ID, first.ID, domain.ItemPatch{Quantity: intPtr(3)})
	require.NoError(t, err)
	assert.True(t, findItem(o, e.s1).TotalPrice.Equal(dec(45000)))
	assert.True(t, o.TotalPrice.Equal(dec(85000)))

	// D: drop the second line.
	o, err = e.svc.DeleteItem(ctx, e.staff, o.ID, second.ID)
	require.NoError(t, err)
	assert.Len(t, o.Items, 1)
	assert.True(t, o.TotalPrice.Equal(dec(45000)))

	// E: complete as admin, then staff is locked out and admin is not.
	o, err = e.svc.UpdateStatus(ctx, e.admin, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, o.CompletedAt)

	_, err = e.svc.AddItem(ctx, e.staff, o.ID, NewItem{ServiceID: e.s2, Quantity: 1})
	_, ok := apperrors.IsForbiddenError(err)
	require.True(t, ok, "expected ForbiddenError, got %v", err)

	o, err = e.svc.AddItem(ctx, e.admin, o.ID, NewItem{ServiceID: e.s2, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, o.TotalPrice.Equal(dec(75000)))

	e.assertTotalConsistent(t, o.ID)
}

func TestCreateOrder_ByCustomerID(t *testing.T) {
	e := newEnv(t)
	customer := testutil.InsertUser(t, e.db, "+84912000001", "Minh", "customer")

	o, err := e.svc.CreateOrder(context.Background(), e.staff, CreateOrderInput{
		CustomerID: customer,
		Items:      []NewItem{{ServiceID: e.s1, Quantity: 1}, {ServiceID: e.s1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, customer, o.CustomerID)
	assert.Len(t, o.Items, 2)
	assert.True(t, o.TotalPrice.Equal(dec(45000)))
}

func TestCreateOrder_RejectsBadReferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inactive := testutil.InsertService(t, e.db, "Retired", 1000, false)
	contact := &identity.ContactInfo{Phone: "0909999999", Name: "X"}

	_, err := e.svc.CreateOrder(ctx, e.staff, CreateOrderInput{Customer: contact, Items: []NewItem{{ServiceID: "nope", Quantity: 1}}})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok, "unknown service: %v", err)

	_, err = e.svc.CreateOrder(ctx, e.staff, CreateOrderInput{Customer: contact, Items: []NewItem{{ServiceID: inactive, Quantity: 1}}})
	_, ok = apperrors.IsInvalidStateError(err)
	assert.True(t, ok, "inactive service: %v", err)

	_, err = e.svc.CreateOrder(ctx, e.staff, CreateOrderInput{CustomerID: "ghost", Items: []NewItem{{ServiceID: e.s1, Quantity: 1}}})
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok, "unknown customer: %v", err)

	_, err = e.svc.CreateOrder(ctx, e.staff, CreateOrderInput{CustomerID: e.admin.ID, Items: []NewItem{{ServiceID: e.s1, Quantity: 1}}})
	_, ok = apperrors.IsInvalidStateError(err)
	assert.True(t, ok, "non-customer identity: %v", err)

	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM Orders`).Scan(&n))
	assert.Zero(t, n, "failed creations leave nothing behind")
}

func TestCreateOrder_CustomerCallerForbidden(t *testing.T) {
	e := newEnv(t)
	customer := domain.Caller{ID: testutil.InsertUser(t, e.db, "+84912000002", "C", "customer"), Role: domain.RoleCustomer}

	_, err := e.svc.CreateOrder(context.Background(), customer, CreateOrderInput{
		CustomerID: customer.ID,
		Items:      []NewItem{{ServiceID: e.s1, Quantity: 1}},
	})
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestAddItem_Failures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)
	inactive := testutil.InsertService(t, e.db, "Retired", 1000, false)

	_, err := e.svc.AddItem(ctx, e.staff, "missing-order", NewItem{ServiceID: e.s1, Quantity: 1})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	_, err = e.svc.AddItem(ctx, e.staff, o.ID, NewItem{ServiceID: "missing-service", Quantity: 1})
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	_, err = e.svc.AddItem(ctx, e.staff, o.ID, NewItem{ServiceID: inactive, Quantity: 1})
	_, ok = apperrors.IsInvalidStateError(err)
	assert.True(t, ok)

	got, err := e.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.True(t, got.TotalPrice.Equal(dec(75000)))
}

func TestUpdateItem_KeepsIdentityFields(t *testing.T) {
	e := newEnv(t)
	o := e.createOrder(t)
	before := o.Items[0]

	o, err := e.svc.UpdateItem(context.Background(), e.staff, o.ID, before.ID, domain.ItemPatch{
		UnitPrice: decPtr(12000),
		Note:      strPtr("stain on collar"),
	})
	require.NoError(t, err)

	after := o.Items[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.OrderID, after.OrderID)
	assert.Equal(t, before.ServiceID, after.ServiceID)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Equal(t, 5, after.Quantity)
	assert.True(t, after.TotalPrice.Equal(dec(60000)))
	assert.True(t, o.TotalPrice.Equal(dec(60000)))
}

func TestUpdateItem_ClearNote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)
	itemID := o.Items[0].ID

	o, err := e.svc.UpdateItem(ctx, e.staff, o.ID, itemID, domain.ItemPatch{Note: strPtr("no starch")})
	require.NoError(t, err)
	require.NotNil(t, o.Items[0].Note)

	o, err = e.svc.UpdateItem(ctx, e.staff, o.ID, itemID, domain.ItemPatch{ClearNote: true})
	require.NoError(t, err)
	assert.Nil(t, o.Items[0].Note)

	var stored sql.NullString
	require.NoError(t, e.db.QueryRow(`SELECT note FROM OrderItems WHERE id = ?`, itemID).Scan(&stored))
	assert.False(t, stored.Valid, "note column is NULL, not an empty string")
}

func TestUpdateItem_WrongOrder(t *testing.T) {
	e := newEnv(t)
	a := e.createOrder(t)
	b := e.createOrder(t)

	_, err := e.svc.UpdateItem(context.Background(), e.staff, b.ID, a.Items[0].ID, domain.ItemPatch{Quantity: intPtr(1)})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestDeleteItem_LastItemRejected(t *testing.T) {
	e := newEnv(t)
	o := e.createOrder(t)

	_, err := e.svc.DeleteItem(context.Background(), e.staff, o.ID, o.Items[0].ID)
	_, ok := apperrors.IsInvalidStateError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)

	o, err := e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, o.Status)

	_, err = e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusConfirmed)
	_, ok := apperrors.IsInvalidStateError(err)
	assert.True(t, ok, "backwards move")

	o, err = e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, o.CancelledAt)
	assert.Nil(t, o.CompletedAt)

	_, err = e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusPending)
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok, "staff cannot reopen")

	o, err = e.svc.UpdateStatus(ctx, e.admin, o.ID, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Nil(t, o.CancelledAt, "leaving cancelled clears the stamp")
}

func TestUpdateNote_Gate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)

	o, err := e.svc.UpdateNote(ctx, e.staff, o.ID, strPtr("deliver after 6pm"))
	require.NoError(t, err)
	assert.Equal(t, "deliver after 6pm", *o.Note)

	_, err = e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	_, err = e.svc.UpdateNote(ctx, e.staff, o.ID, strPtr("late"))
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	o, err = e.svc.UpdateNote(ctx, e.admin, o.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, o.Note)
}

func TestDeleteOrder_SoftDeletesItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)

	require.NoError(t, e.svc.DeleteOrder(ctx, e.staff, o.ID))

	_, err := e.svc.GetOrder(ctx, o.ID)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	var live int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM OrderItems WHERE orderId = ? AND isDeleted = 0`, o.ID).Scan(&live))
	assert.Zero(t, live)
}

func TestDeleteOrder_TerminalNeedsAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)
	_, err := e.svc.UpdateStatus(ctx, e.staff, o.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	err = e.svc.DeleteOrder(ctx, e.staff, o.ID)
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	assert.NoError(t, e.svc.DeleteOrder(ctx, e.admin, o.ID))
}

func TestGetOrder_RepairsDriftedTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)

	_, err := e.db.Exec(`UPDATE Orders SET totalPrice = 1 WHERE id = ?`, o.ID)
	require.NoError(t, err)

	got, err := e.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(dec(75000)))
	e.assertTotalConsistent(t, o.ID)
}

func TestRecalculateTotal_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.createOrder(t)

	a, err := e.svc.RecalculateTotal(ctx, o.ID)
	require.NoError(t, err)
	b, err := e.svc.RecalculateTotal(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, a.TotalPrice.Equal(b.TotalPrice))
	assert.True(t, b.UpdatedAt.Equal(a.UpdatedAt), "no write when already consistent")
}

func TestListOrders_AttachesItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		e.createOrder(t)
	}

	page, err := e.svc.ListOrders(ctx, domain.OrderFilter{StaffID: e.staff.ID}, domain.Page{Number: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	for _, o := range page.Orders {
		assert.Len(t, o.Items, 1)
	}
}

func TestConcurrentItemMutations_NoLostUpdates(t *testing.T) {
	runConcurrentItemMutations(t, newEnvOn(t, testutil.SetupFileTestDB(t, 8), database.SQLite))
}

func TestConcurrentItemMutations_NoLostUpdates_MySQL(t *testing.T) {
	runConcurrentItemMutations(t, newEnvOn(t, testutil.SetupMySQLTestDB(t), database.MySQL))
}

// runConcurrentItemMutations fires adds and quantity edits at one order from
// many goroutines. The store must hand out several connections for the
// writers to actually overlap.
func runConcurrentItemMutations(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	o := e.createOrder(t)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.AddItem(ctx, e.staff, o.ID, NewItem{ServiceID: e.s2, Quantity: 1, UnitPrice: decPtr(1000)})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := e.svc.UpdateItem(ctx, e.staff, o.ID, o.Items[0].ID, domain.ItemPatch{Quantity: intPtr(1 + q%2)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := e.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, workers+1)
	e.assertTotalConsistent(t, o.ID)
	assert.True(t, got.TotalPrice.Equal(domain.SumLive(got.Items)))
}

func strPtr(s string) *string { return &s }
