package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a catalog entry: something a customer can order.
type Service struct {
	ID        string
	Name      string
	Category  string
	Unit      string
	Price     decimal.Decimal
	Active    bool
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ServiceFilter struct {
	Active   *bool
	Category string
	Search   string
}

type ServicePatch struct {
	Name     *string
	Category *string
	Unit     *string
	Price    *decimal.Decimal
	Active   *bool
}
