package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxOrderNoteLength = 500
	MaxItemNoteLength  = 200
	MaxItemsPerOrder   = 100
	MinItemQuantity    = 1
	MaxItemQuantity    = 10000
)

// MaxUnitPrice bounds a charged unit price.
var MaxUnitPrice = decimal.NewFromInt(1_000_000_000)

type Order struct {
	ID          string
	CustomerID  string
	StaffID     string
	Status      OrderStatus
	TotalPrice  decimal.Decimal
	Note        *string
	CompletedAt *time.Time
	CancelledAt *time.Time
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItem
}

// TotalMatchesItems reports whether the stored total agrees with the items.
func (o Order) TotalMatchesItems() bool {
	return o.TotalPrice.Equal(SumLive(o.Items))
}

type OrderFilter struct {
	Status     *OrderStatus
	CustomerID string
	StaffID    string
	From       *time.Time
	To         *time.Time
}

type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func NewPagination(p Page, total int) Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Number, Limit: p.Limit, Total: total, TotalPages: totalPages}
}

// OrderPage is one page of a filtered order listing.
type OrderPage struct {
	Orders     []Order
	Pagination Pagination
}
