package identity

import (
	"context"
	"time"

	"laundrypro/internal/domain"
	"laundrypro/internal/infrastructure/database"
)

type Repository interface {
	FindByID(ctx context.Context, q database.DBTX, id string) (*domain.User, error)
	FindByPhone(ctx context.Context, q database.DBTX, phone string) (*domain.User, error)
	FindByPhoneForUpdate(ctx context.Context, q database.DBTX, phone string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	Insert(ctx context.Context, q database.DBTX, u domain.User) error
	UpdateContact(ctx context.Context, q database.DBTX, id, name string, address *string, now time.Time) error
}

// ContactInfo identifies a walk-in customer by phone.
type ContactInfo struct {
	Phone   string
	Name    string
	Address *string
}
