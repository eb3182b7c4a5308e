package identity

import (
	"database/sql"

	"go.uber.org/zap"

	"laundrypro/internal/identity/repository"
	"laundrypro/internal/infrastructure/database"
)

func NewModule(db *sql.DB, dialect database.Dialect, logger *zap.Logger) *Service {
	return NewService(repository.NewSQLRepository(db, dialect), logger)
}
