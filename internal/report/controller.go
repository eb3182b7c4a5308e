package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"laundrypro/internal/commons"
	"laundrypro/internal/dto"
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

// RegisterRoutes mounts GET /stats on r behind the admin middleware chain.
func (c *Controller) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.With(admin...).Get("/stats", c.HandleOrderStats)
}

func (c *Controller) HandleOrderStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := c.useCase.GetOrderStats(r.Context(), dto.StatsQuery{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, dto.NewOrderStatsResponse(*stats), c.logger)
}
