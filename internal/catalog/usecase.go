package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
)

const (
	maxNameLength     = 100
	maxCategoryLength = 100
	maxUnitLength     = 50
)

type catalogUseCase struct {
	service Service
}

func NewUseCase(service Service) UseCase {
	return &catalogUseCase{service: service}
}

func (uc *catalogUseCase) ListServices(ctx context.Context, req ListServicesRequest) (*ListServicesResponse, error) {
	found, err := uc.service.List(ctx, domain.ServiceFilter{
		Active:   req.Active,
		Category: strings.TrimSpace(req.Category),
		Search:   strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, err
	}

	services := make([]ServiceDTO, 0, len(found))
	for _, s := range found {
		services = append(services, toServiceDTO(s))
	}
	return &ListServicesResponse{Services: services}, nil
}

func (uc *catalogUseCase) GetService(ctx context.Context, id string) (*ServiceDTO, error) {
	s, err := uc.service.Lookup(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	dto := toServiceDTO(*s)
	return &dto, nil
}

func (uc *catalogUseCase) ListCategories(ctx context.Context) (*CategoriesResponse, error) {
	categories, err := uc.service.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoriesResponse{Categories: categories}, nil
}

func (uc *catalogUseCase) CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceDTO, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	created, err := uc.service.Create(ctx, domain.Service{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		Price:    req.Price.Round(2),
		Active:   active,
	})
	if err != nil {
		return nil, err
	}
	dto := toServiceDTO(*created)
	return &dto, nil
}

func (uc *catalogUseCase) UpdateService(ctx context.Context, id string, req UpdateServiceRequest) (*ServiceDTO, error) {
	patch := domain.ServicePatch{Active: req.Active}
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		patch.Name = &v
	}
	if req.Category != nil {
		v := strings.TrimSpace(*req.Category)
		patch.Category = &v
	}
	if req.Unit != nil {
		v := strings.TrimSpace(*req.Unit)
		patch.Unit = &v
	}
	if req.Price != nil {
		v := req.Price.Round(2)
		patch.Price = &v
	}

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := uc.service.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	dto := toServiceDTO(*updated)
	return &dto, nil
}

func (uc *catalogUseCase) DeleteService(ctx context.Context, id string) error {
	return uc.service.Delete(ctx, id)
}

func validateCreateRequest(req CreateServiceRequest) error {
	var details []apperrors.ValidationDetail
	details = append(details, checkText("name", req.Name, maxNameLength)...)
	details = append(details, checkText("category", req.Category, maxCategoryLength)...)
	details = append(details, checkText("unit", req.Unit, maxUnitLength)...)
	if req.Price == nil {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price is required"})
	} else {
		details = append(details, checkPrice(*req.Price)...)
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid service", details...)
	}
	return nil
}

func validatePatch(p domain.ServicePatch) error {
	if p.Name == nil && p.Category == nil && p.Unit == nil && p.Price == nil && p.Active == nil {
		return apperrors.NewValidationError("nothing to update", apperrors.ValidationDetail{
			Field:   "body",
			Message: "at least one field must be provided",
		})
	}

	var details []apperrors.ValidationDetail
	if p.Name != nil {
		details = append(details, checkText("name", *p.Name, maxNameLength)...)
	}
	if p.Category != nil {
		details = append(details, checkText("category", *p.Category, maxCategoryLength)...)
	}
	if p.Unit != nil {
		details = append(details, checkText("unit", *p.Unit, maxUnitLength)...)
	}
	if p.Price != nil {
		details = append(details, checkPrice(*p.Price)...)
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid service", details...)
	}
	return nil
}

func checkText(field, value string, max int) []apperrors.ValidationDetail {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return []apperrors.ValidationDetail{{Field: field, Message: field + " is required"}}
	}
	if n > max {
		return []apperrors.ValidationDetail{{Field: field, Message: field + " is too long"}}
	}
	return nil
}

func checkPrice(price decimal.Decimal) []apperrors.ValidationDetail {
	if price.IsNegative() {
		return []apperrors.ValidationDetail{{Field: "price", Message: "price must not be negative"}}
	}
	if price.GreaterThan(domain.MaxUnitPrice) {
		return []apperrors.ValidationDetail{{Field: "price", Message: "price exceeds maximum"}}
	}
	return nil
}
