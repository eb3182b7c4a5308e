package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID              string
	OrderID         string
	ServiceID       string
	ServiceName     string
	ServiceCategory string
	ServiceUnit     string
	ServicePrice    decimal.Decimal
	Quantity        int
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	Note            *string
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrderItem snapshots the catalog entry onto a new line. The charged unit
// price is the override when given, otherwise the current tariff.
func NewOrderItem(id, orderID string, svc Service, quantity int, unitPrice *decimal.Decimal, note *string, now time.Time) OrderItem {
	price := svc.Price
	if unitPrice != nil {
		price = *unitPrice
	}

	item := OrderItem{
		ID:              id,
		OrderID:         orderID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ServiceCategory: svc.Category,
		ServiceUnit:     svc.Unit,
		ServicePrice:    svc.Price,
		Quantity:        quantity,
		UnitPrice:       price,
		Note:            note,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item.Recalculate()
	return item
}

func (i *OrderItem) Recalculate() {
	i.TotalPrice = LineTotal(i.Quantity, i.UnitPrice)
}

// ItemPatch carries the mutable line fields. A nil field keeps the stored
// value; ClearNote removes the note instead.
type ItemPatch struct {
	Quantity  *int
	UnitPrice *decimal.Decimal
	Note      *string
	ClearNote bool
}

func (p ItemPatch) IsEmpty() bool {
	return p.Quantity == nil && p.UnitPrice == nil && p.Note == nil && !p.ClearNote
}

// Apply merges the patch into the line and recomputes its total.
func (i *OrderItem) Apply(p ItemPatch, now time.Time) {
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		i.UnitPrice = *p.UnitPrice
	}
	switch {
	case p.ClearNote:
		i.Note = nil
	case p.Note != nil:
		i.Note = p.Note
	}
	i.Recalculate()
	i.UpdatedAt = now
}

func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumLive totals the items that are not soft-deleted.
func SumLive(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.IsDeleted {
			continue
		}
		total = total.Add(it.TotalPrice)
	}
	return total
}
