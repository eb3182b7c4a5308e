package catalog

import (
	"context"
	"time"

	"laundrypro/internal/domain"
	"laundrypro/internal/infrastructure/database"
)

type UseCase interface {
	ListServices(ctx context.Context, req ListServicesRequest) (*ListServicesResponse, error)
	GetService(ctx context.Context, id string) (*ServiceDTO, error)
	ListCategories(ctx context.Context) (*CategoriesResponse, error)
	CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceDTO, error)
	UpdateService(ctx context.Context, id string, req UpdateServiceRequest) (*ServiceDTO, error)
	DeleteService(ctx context.Context, id string) error
}

type Service interface {
	Lookup(ctx context.Context, q database.DBTX, id string) (*domain.Service, error)
	GetServicesByIDs(ctx context.Context, q database.DBTX, ids []string) (found []domain.Service, notFoundIDs []string, err error)
	List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, draft domain.Service) (*domain.Service, error)
	Update(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	FindByID(ctx context.Context, q database.DBTX, id string) (*domain.Service, error)
	FindByIDs(ctx context.Context, q database.DBTX, ids []string) ([]domain.Service, error)
	List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
	Categories(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, s domain.Service) error
	Update(ctx context.Context, id string, patch domain.ServicePatch, now time.Time) error
	SoftDelete(ctx context.Context, id string, now time.Time) error
}
