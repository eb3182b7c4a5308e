package report

import (
	"database/sql"

	"go.uber.org/zap"

	"laundrypro/internal/report/repository"
)

func NewModule(db *sql.DB, users UserDirectory, logger *zap.Logger) *Controller {
	repo := repository.NewSQLRepository(db)
	return NewController(NewUseCase(repo, users, logger), logger)
}
