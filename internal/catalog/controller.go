package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"laundrypro/internal/commons"
	apperrors "laundrypro/internal/errors"
)

type Controller struct {
	useCase UseCase
	logger  *zap.Logger
}

func NewController(useCase UseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

// RegisterRoutes mounts the catalog on r. Reads are public; writes go through
// the admin middleware chain.
func (c *Controller) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Get("/", c.HandleListServices)
	r.Get("/categories", c.HandleListCategories)
	r.Get("/{serviceId}", c.HandleGetService)

	r.Group(func(r chi.Router) {
		r.Use(admin...)
		r.Post("/", c.HandleCreateService)
		r.Put("/{serviceId}", c.HandleUpdateService)
		r.Delete("/{serviceId}", c.HandleDeleteService)
	})
}

func (c *Controller) HandleListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListServicesRequest{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			commons.WriteError(w, r, apperrors.NewValidationError("invalid query", apperrors.ValidationDetail{
				Field:   "active",
				Message: "active must be true or false",
			}), c.logger)
			return
		}
		req.Active = &active
	}

	resp, err := c.useCase.ListServices(r.Context(), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *Controller) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := c.useCase.ListCategories(r.Context())
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *Controller) HandleGetService(w http.ResponseWriter, r *http.Request) {
	resp, err := c.useCase.GetService(r.Context(), chi.URLParam(r, "serviceId"))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *Controller) HandleCreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	resp, err := c.useCase.CreateService(r.Context(), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	c.logger.Info("service created",
		zap.String("traceId", commons.TraceID(r.Context())),
		zap.String("serviceId", resp.ID),
	)
	commons.WriteJSON(w, http.StatusCreated, resp, c.logger)
}

func (c *Controller) HandleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	resp, err := c.useCase.UpdateService(r.Context(), chi.URLParam(r, "serviceId"), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *Controller) HandleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "serviceId")
	if err := c.useCase.DeleteService(r.Context(), id); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	c.logger.Info("service deleted",
		zap.String("traceId", commons.TraceID(r.Context())),
		zap.String("serviceId", id),
	)
	w.WriteHeader(http.StatusNoContent)
}
