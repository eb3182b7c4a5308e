package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
	apperrors "laundrypro/internal/errors"
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetMyOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, q dto.ListOrdersQuery) (*domain.OrderPage, error)
	ListMyOrders(ctx context.Context, caller domain.Caller, q dto.ListOrdersQuery) (*domain.OrderPage, error)
	ListByCustomer(ctx context.Context, customerID string, q dto.ListOrdersQuery) (*domain.OrderPage, error)
	ListByStaff(ctx context.Context, staffID string, q dto.ListOrdersQuery) (*domain.OrderPage, error)
	SearchByPhone(ctx context.Context, phone string, q dto.ListOrdersQuery) (*domain.OrderPage, error)
	UpdateNote(ctx context.Context, caller domain.Caller, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, caller domain.Caller, orderID string, req dto.UpdateStatusRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, caller domain.Caller, orderID string) error
	AddItem(ctx context.Context, caller domain.Caller, orderID string, req dto.CreateItemRequest) (*domain.Order, error)
	UpdateItem(ctx context.Context, caller domain.Caller, orderID, itemID string, req dto.UpdateItemRequest) (*domain.Order, error)
	DeleteItem(ctx context.Context, caller domain.Caller, orderID, itemID string) (*domain.Order, error)
	RecalculateTotal(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error)
}

type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

// RegisterRoutes mounts the order endpoints on r, which must already carry
// the authentication middleware. Self-service routes are open to any caller;
// everything else goes through the staff middleware chain.
func (c *OrderController) RegisterRoutes(r chi.Router, staff ...func(http.Handler) http.Handler) {
	r.Get("/my-orders", c.HandleListMyOrders)
	r.Get("/my-orders/{orderId}", c.HandleGetMyOrder)

	r.Group(func(r chi.Router) {
		r.Use(staff...)

		r.Post("/", c.HandleCreateOrder)
		r.Get("/", c.HandleListOrders)
		r.Get("/search", c.HandleSearchByPhone)
		r.Get("/customers/{customerId}", c.HandleListByCustomer)
		r.Get("/staff/{staffId}", c.HandleListByStaff)

		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", c.HandleGetOrder)
			r.Put("/", c.HandleUpdateOrder)
			r.Delete("/", c.HandleDeleteOrder)
			r.Patch("/status", c.HandleUpdateStatus)
			r.Post("/recalculate", c.HandleRecalculate)
			r.Post("/items", c.HandleAddItem)
			r.Put("/items/{itemId}", c.HandleUpdateItem)
			r.Delete("/items/{itemId}", c.HandleDeleteItem)
		})
	})
}

func (c *OrderController) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	o, err := c.useCase.CreateOrder(r.Context(), caller, req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	c.logger.Info("order created",
		zap.String("traceId", commons.TraceID(r.Context())),
		zap.String("orderId", o.ID),
		zap.String("customerId", o.CustomerID),
		zap.String("totalPrice", o.TotalPrice.String()),
	)
	commons.WriteJSON(w, http.StatusCreated, dto.NewOrderResponse(*o), c.logger)
}

func (c *OrderController) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := c.useCase.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleGetMyOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}
	o, err := c.useCase.GetMyOrder(r.Context(), caller, chi.URLParam(r, "orderId"))
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := c.useCase.ListOrders(r.Context(), listQuery(r))
	c.writePage(w, r, page, err)
}

func (c *OrderController) HandleListMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}
	page, err := c.useCase.ListMyOrders(r.Context(), caller, listQuery(r))
	c.writePage(w, r, page, err)
}

func (c *OrderController) HandleListByCustomer(w http.ResponseWriter, r *http.Request) {
	page, err := c.useCase.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"), listQuery(r))
	c.writePage(w, r, page, err)
}

func (c *OrderController) HandleListByStaff(w http.ResponseWriter, r *http.Request) {
	page, err := c.useCase.ListByStaff(r.Context(), chi.URLParam(r, "staffId"), listQuery(r))
	c.writePage(w, r, page, err)
}

func (c *OrderController) HandleSearchByPhone(w http.ResponseWriter, r *http.Request) {
	page, err := c.useCase.SearchByPhone(r.Context(), r.URL.Query().Get("phone"), listQuery(r))
	c.writePage(w, r, page, err)
}

// HandleUpdateOrder only changes the note. Identity, customer, staff, status
// and total fields in the payload are never decoded.
func (c *OrderController) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	o, err := c.useCase.UpdateNote(r.Context(), caller, chi.URLParam(r, "orderId"), req)
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	o, err := c.useCase.UpdateStatus(r.Context(), caller, chi.URLParam(r, "orderId"), req)
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if err := c.useCase.DeleteOrder(r.Context(), caller, orderID); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	c.logger.Info("order deleted",
		zap.String("traceId", commons.TraceID(r.Context())),
		zap.String("orderId", orderID),
		zap.String("callerId", caller.ID),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}
	o, err := c.useCase.RecalculateTotal(r.Context(), caller, chi.URLParam(r, "orderId"))
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	o, err := c.useCase.AddItem(r.Context(), caller, chi.URLParam(r, "orderId"), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusCreated, dto.NewOrderResponse(*o), c.logger)
}

func (c *OrderController) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	o, err := c.useCase.UpdateItem(r.Context(), caller, chi.URLParam(r, "orderId"), chi.URLParam(r, "itemId"), req)
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(w, r)
	if !ok {
		return
	}
	o, err := c.useCase.DeleteItem(r.Context(), caller, chi.URLParam(r, "orderId"), chi.URLParam(r, "itemId"))
	c.writeOrder(w, r, o, err)
}

func (c *OrderController) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := commons.CallerFrom(r.Context())
	if !ok {
		commons.WriteError(w, r, apperrors.NewUnauthorizedError("authentication required"), c.logger)
		return domain.Caller{}, false
	}
	return caller, true
}

func (c *OrderController) writeOrder(w http.ResponseWriter, r *http.Request, o *domain.Order, err error) {
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, dto.NewOrderResponse(*o), c.logger)
}

func (c *OrderController) writePage(w http.ResponseWriter, r *http.Request, page *domain.OrderPage, err error) {
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, dto.NewOrderListResponse(*page), c.logger)
}

func listQuery(r *http.Request) dto.ListOrdersQuery {
	q := r.URL.Query()
	return dto.ListOrdersQuery{
		Status:        q.Get("status"),
		CustomerID:    q.Get("customerId"),
		StaffID:       q.Get("staffId"),
		CustomerPhone: q.Get("customerPhone"),
		StartDate:     q.Get("startDate"),
		EndDate:       q.Get("endDate"),
		Page:          q.Get("page"),
		Limit:         q.Get("limit"),
	}
}
