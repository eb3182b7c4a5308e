package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxDailyBuckets = 30
	MaxTopCustomers = 10
)

type DateRange struct {
	From *time.Time
	To   *time.Time
}

type StatusSummary struct {
	Status       OrderStatus
	Count        int
	TotalRevenue decimal.Decimal
}

type RevenueSummary struct {
	TotalRevenue  decimal.Decimal
	TotalOrders   int
	AvgOrderValue decimal.Decimal
}

type DailyRevenue struct {
	Date    string
	Count   int
	Revenue decimal.Decimal
}

type TopCustomer struct {
	CustomerID  string
	Name        string
	Phone       string
	TotalOrders int
	TotalSpent  decimal.Decimal
}

type OrderStats struct {
	ByStatus     []StatusSummary
	Revenue      RevenueSummary
	Daily        []DailyRevenue
	TopCustomers []TopCustomer
}

// CompletedOrderRow is the slice of a completed order the report needs.
type CompletedOrderRow struct {
	OrderID    string
	CustomerID string
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}
