package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"laundrypro/internal/domain"
)

type OrderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customerId"`
	StaffID     string              `json:"staffId"`
	Status      string              `json:"status"`
	TotalPrice  decimal.Decimal     `json:"totalPrice"`
	Note        *string             `json:"note"`
	CompletedAt *time.Time          `json:"completedAt"`
	CancelledAt *time.Time          `json:"cancelledAt"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type OrderItemResponse struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	ServiceID       string          `json:"serviceId"`
	ServiceName     string          `json:"serviceName"`
	ServiceCategory string          `json:"serviceCategory"`
	ServiceUnit     string          `json:"serviceUnit"`
	ServicePrice    decimal.Decimal `json:"servicePrice"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Note            *string         `json:"note"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type OrderListResponse struct {
	Orders     []OrderResponse    `json:"orders"`
	Pagination PaginationResponse `json:"pagination"`
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		if it.IsDeleted {
			continue
		}
		items = append(items, OrderItemResponse{
			ID:              it.ID,
			OrderID:         it.OrderID,
			ServiceID:       it.ServiceID,
			ServiceName:     it.ServiceName,
			ServiceCategory: it.ServiceCategory,
			ServiceUnit:     it.ServiceUnit,
			ServicePrice:    it.ServicePrice,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			Note:            it.Note,
			CreatedAt:       it.CreatedAt,
			UpdatedAt:       it.UpdatedAt,
		})
	}

	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		StaffID:     o.StaffID,
		Status:      string(o.Status),
		TotalPrice:  o.TotalPrice,
		Note:        o.Note,
		CompletedAt: o.CompletedAt,
		CancelledAt: o.CancelledAt,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func NewOrderListResponse(p domain.OrderPage) OrderListResponse {
	orders := make([]OrderResponse, 0, len(p.Orders))
	for _, o := range p.Orders {
		orders = append(orders, NewOrderResponse(o))
	}
	return OrderListResponse{
		Orders: orders,
		Pagination: PaginationResponse{
			Page:       p.Pagination.Page,
			Limit:      p.Pagination.Limit,
			Total:      p.Pagination.Total,
			TotalPages: p.Pagination.TotalPages,
		},
	}
}

type StatusSummaryResponse struct {
	Status       string          `json:"status"`
	Count        int             `json:"count"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type RevenueResponse struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalOrders   int             `json:"totalOrders"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}

type DailyRevenueResponse struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopCustomerResponse struct {
	CustomerID  string          `json:"customerId"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

type OrderStatsResponse struct {
	ByStatus     []StatusSummaryResponse `json:"byStatus"`
	Revenue      RevenueResponse         `json:"revenue"`
	Daily        []DailyRevenueResponse  `json:"daily"`
	TopCustomers []TopCustomerResponse   `json:"topCustomers"`
}

func NewOrderStatsResponse(s domain.OrderStats) OrderStatsResponse {
	resp := OrderStatsResponse{
		ByStatus: make([]StatusSummaryResponse, 0, len(s.ByStatus)),
		Revenue: RevenueResponse{
			TotalRevenue:  s.Revenue.TotalRevenue,
			TotalOrders:   s.Revenue.TotalOrders,
			AvgOrderValue: s.Revenue.AvgOrderValue,
		},
		Daily:        make([]DailyRevenueResponse, 0, len(s.Daily)),
		TopCustomers: make([]TopCustomerResponse, 0, len(s.TopCustomers)),
	}
	for _, st := range s.ByStatus {
		resp.ByStatus = append(resp.ByStatus, StatusSummaryResponse{
			Status: string(st.Status), Count: st.Count, TotalRevenue: st.TotalRevenue,
		})
	}
	for _, d := range s.Daily {
		resp.Daily = append(resp.Daily, DailyRevenueResponse{Date: d.Date, Count: d.Count, Revenue: d.Revenue})
	}
	for _, c := range s.TopCustomers {
		resp.TopCustomers = append(resp.TopCustomers, TopCustomerResponse{
			CustomerID: c.CustomerID, Name: c.Name, Phone: c.Phone,
			TotalOrders: c.TotalOrders, TotalSpent: c.TotalSpent,
		})
	}
	return resp
}
