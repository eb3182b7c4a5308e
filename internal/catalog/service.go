package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"laundrypro/internal/domain"
	"laundrypro/internal/infrastructure/database"
)

type catalogService struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &catalogService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *catalogService) Lookup(ctx context.Context, q database.DBTX, id string) (*domain.Service, error) {
	return s.repo.FindByID(ctx, q, id)
}

// GetServicesByIDs splits ids into the live entries found and the ids that
// have no live entry, preserving the order of ids in notFoundIDs.
func (s *catalogService) GetServicesByIDs(ctx context.Context, q database.DBTX, ids []string) ([]domain.Service, []string, error) {
	found, err := s.repo.FindByIDs(ctx, q, ids)
	if err != nil {
		return nil, nil, err
	}

	foundSet := make(map[string]struct{}, len(found))
	for _, svc := range found {
		foundSet[svc.ID] = struct{}{}
	}

	var notFoundIDs []string
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}

func (s *catalogService) List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	return s.repo.List(ctx, filter)
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *catalogService) Create(ctx context.Context, draft domain.Service) (*domain.Service, error) {
	now := s.now()
	draft.ID = uuid.NewString()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	draft.IsDeleted = false

	if err := s.repo.Insert(ctx, draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *catalogService) Update(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	if err := s.repo.Update(ctx, id, patch, s.now()); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, nil, id)
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id, s.now())
}
