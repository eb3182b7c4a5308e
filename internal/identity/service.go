package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/infrastructure/database"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// FindOrCreateCustomer returns the customer registered under info.Phone,
// creating an unverified one when none exists. An existing customer's name
// and address are refreshed when they differ; phone and role never change.
func (s *Service) FindOrCreateCustomer(ctx context.Context, q database.DBTX, info ContactInfo) (*domain.User, error) {
	phone := FormatPhoneE164(info.Phone)
	if !ValidPhone(phone) {
		return nil, apperrors.NewValidationError("invalid phone", apperrors.ValidationDetail{
			Field:   "customerPhone",
			Message: "phone number is not valid",
		})
	}

	existing, err := s.repo.FindByPhone(ctx, q, phone)
	if err == nil {
		return s.reuseCustomer(ctx, q, existing, info)
	}
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return nil, err
	}

	now := s.now()
	u := domain.User{
		ID:        uuid.NewString(),
		Phone:     phone,
		Name:      info.Name,
		Address:   info.Address,
		Role:      domain.RoleCustomer,
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, q, u); err != nil {
		if !database.IsDuplicateKey(err) {
			return nil, err
		}
		// Another request registered the phone after our lookup.
		s.logger.Info("customer created concurrently, reusing it", zap.String("phone", phone))
		existing, err := s.repo.FindByPhoneForUpdate(ctx, q, phone)
		if err != nil {
			return nil, err
		}
		return s.reuseCustomer(ctx, q, existing, info)
	}

	s.logger.Info("customer created", zap.String("customerId", u.ID))
	return &u, nil
}

func (s *Service) reuseCustomer(ctx context.Context, q database.DBTX, existing *domain.User, info ContactInfo) (*domain.User, error) {
	if existing.Role != domain.RoleCustomer {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("phone %s belongs to a %s account", existing.Phone, existing.Role))
	}
	if !existing.IsActive() {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("customer %s is suspended", existing.ID))
	}
	return s.refreshContact(ctx, q, existing, info)
}

func (s *Service) refreshContact(ctx context.Context, q database.DBTX, u *domain.User, info ContactInfo) (*domain.User, error) {
	changed := false
	if info.Name != "" && info.Name != u.Name {
		u.Name = info.Name
		changed = true
	}
	if info.Address != nil && *info.Address != "" && (u.Address == nil || *u.Address != *info.Address) {
		addr := *info.Address
		u.Address = &addr
		changed = true
	}
	if !changed {
		return u, nil
	}

	u.UpdatedAt = s.now()
	if err := s.repo.UpdateContact(ctx, q, u.ID, u.Name, u.Address, u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// GetCustomer returns the identity id if it is an active customer.
func (s *Service) GetCustomer(ctx context.Context, q database.DBTX, id string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleCustomer {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("user %s is not a customer", id))
	}
	if !u.IsActive() {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("customer %s is suspended", id))
	}
	return u, nil
}

// FindByPhone looks a user up by any phone spelling FormatPhoneE164 accepts.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return s.repo.FindByPhone(ctx, nil, FormatPhoneE164(phone))
}

// UsersByID returns the known identities among ids keyed by id.
func (s *Service) UsersByID(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// ResolveCaller turns an authenticated identity id into a Caller. Unknown ids
// are unauthorized and suspended users are forbidden.
func (s *Service) ResolveCaller(ctx context.Context, id string) (*domain.Caller, error) {
	if id == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}

	u, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, apperrors.NewUnauthorizedError("unknown caller identity")
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, apperrors.NewForbiddenError("account is suspended")
	}
	if !u.Role.IsValid() {
		return nil, apperrors.NewForbiddenError("account has no valid role")
	}

	return &domain.Caller{ID: u.ID, Role: u.Role}, nil
}
