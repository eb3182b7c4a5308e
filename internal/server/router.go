package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"laundrypro/internal/catalog"
	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	"laundrypro/internal/infrastructure/metrics"
	ordercontroller "laundrypro/internal/order/controller"
	"laundrypro/internal/report"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Catalog *catalog.Controller
	Orders  *ordercontroller.OrderController
	Reports *report.Controller
	Callers CallerResolver
	Metrics *metrics.ServerMetrics
	DB      Pinger
}

func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Trace)
	r.Use(RequestLogger(logger))
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/health", healthHandler(h.DB, logger))

	authenticate := Authenticate(h.Callers, logger)
	staffOrAdmin := RequireRole(logger, domain.RoleStaff, domain.RoleAdmin)
	adminOnly := RequireRole(logger, domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/services", func(r chi.Router) {
			h.Catalog.RegisterRoutes(r, authenticate, adminOnly)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate)
			h.Reports.RegisterRoutes(r, adminOnly)
			h.Orders.RegisterRoutes(r, staffOrAdmin)
		})
	})

	return r
}

func healthHandler(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		commons.WriteJSON(w, code, map[string]string{"status": status}, logger)
	}
}
