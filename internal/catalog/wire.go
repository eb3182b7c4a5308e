package catalog

import (
	"database/sql"

	"go.uber.org/zap"

	"laundrypro/internal/catalog/repository"
)

type Module struct {
	Service    Service
	Controller *Controller
}

// NewModule builds the catalog. Service is exposed so the order module can
// resolve catalog entries inside its own transactions.
func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := repository.NewSQLRepository(db)
	svc := NewService(repo)
	uc := NewUseCase(svc)
	return &Module{
		Service:    svc,
		Controller: NewController(uc, logger),
	}
}
