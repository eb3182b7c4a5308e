package dto

import "github.com/shopspring/decimal"

type CustomerContact struct {
	Phone   string  `json:"phone"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

type CreateOrderRequest struct {
	CustomerID string              `json:"customerId"`
	Customer   *CustomerContact    `json:"customer"`
	Note       *string             `json:"note"`
	Items      []CreateItemRequest `json:"items"`
}

type CreateItemRequest struct {
	ServiceID string           `json:"serviceId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Note      *string          `json:"note"`
}

// UpdateOrderRequest carries the only order field a client may change.
// Anything else in the payload is ignored.
type UpdateOrderRequest struct {
	Note *string `json:"note"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateItemRequest struct {
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Note      *string          `json:"note"`
}

// ListOrdersQuery holds the raw query string values; they are parsed and
// validated by the use case.
type ListOrdersQuery struct {
	Status        string
	CustomerID    string
	StaffID       string
	CustomerPhone string
	StartDate     string
	EndDate       string
	Page          string
	Limit         string
}

type StatsQuery struct {
	StartDate string
	EndDate   string
}
