package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundrypro/internal/domain"
	"laundrypro/internal/errors"
)

func (f *fixture) insertItem(t *testing.T, orderID string, qty int, price string) domain.OrderItem {
	t.Helper()
	svc := domain.Service{
		ID: f.service, Name: "Wash", Category: "washing", Unit: "kg",
		Price: decimal.RequireFromString(price),
	}
	it := domain.NewOrderItem(uuid.NewString(), orderID, svc, qty, nil, nil, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, f.items.Insert(context.Background(), nil, it))
	return it
}

func itemInsertAndFind(t *testing.T, f *fixture) {
	ctx := context.Background()
	o := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	it := f.insertItem(t, o.ID, 3, "15000")

	got, err := f.items.FindByID(ctx, nil, o.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, "Wash", got.ServiceName)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(45000)))

	other := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	_, err = f.items.FindByID(ctx, nil, other.ID, it.ID)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok, "item must belong to the order")
}

func itemSumAndCountIgnoreDeleted(t *testing.T, f *fixture) {
	ctx := context.Background()
	o := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)

	sum, err := f.items.SumByOrderID(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	a := f.insertItem(t, o.ID, 2, "0.10")
	f.insertItem(t, o.ID, 1, "0.20")
	f.insertItem(t, o.ID, 3, "10000")

	sum, err = f.items.SumByOrderID(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "30000.4", sum.String())

	require.NoError(t, f.items.SoftDelete(ctx, nil, o.ID, a.ID, time.Now().UTC()))

	sum, err = f.items.SumByOrderID(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "30000.2", sum.String())

	n, err := f.items.CountLiveByOrderID(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func itemUpdateKeepsSnapshot(t *testing.T, f *fixture) {
	ctx := context.Background()
	o := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	it := f.insertItem(t, o.ID, 1, "15000")

	qty := 4
	it.Apply(domain.ItemPatch{Quantity: &qty}, time.Now().UTC())
	it.ServiceName = "tampered"
	require.NoError(t, f.items.Update(ctx, nil, it))

	got, err := f.items.FindByID(ctx, nil, o.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, "Wash", got.ServiceName)
}

func itemFindByOrderIDs(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	b := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	f.insertItem(t, a.ID, 1, "100")
	f.insertItem(t, a.ID, 2, "100")
	f.insertItem(t, b.ID, 1, "100")

	byOrder, err := f.items.FindByOrderIDs(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, byOrder[a.ID], 2)
	assert.Len(t, byOrder[b.ID], 1)

	empty, err := f.items.FindByOrderIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func itemSoftDeleteByOrderID(t *testing.T, f *fixture) {
	ctx := context.Background()
	o := f.insertOrder(t, time.Now().UTC(), domain.OrderStatusPending)
	f.insertItem(t, o.ID, 1, "100")
	f.insertItem(t, o.ID, 1, "100")

	n, err := f.items.SoftDeleteByOrderID(ctx, nil, o.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err := f.items.FindByOrderID(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
