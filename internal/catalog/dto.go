package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"laundrypro/internal/domain"
)

type ListServicesRequest struct {
	Active   *bool
	Category string
	Search   string
}

type ListServicesResponse struct {
	Services []ServiceDTO `json:"services"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type CreateServiceRequest struct {
	Name     string           `json:"name"`
	Category string           `json:"category"`
	Unit     string           `json:"unit"`
	Price    *decimal.Decimal `json:"price"`
	Active   *bool            `json:"active"`
}

type UpdateServiceRequest struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Unit     *string          `json:"unit"`
	Price    *decimal.Decimal `json:"price"`
	Active   *bool            `json:"active"`
}

type ServiceDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toServiceDTO(s domain.Service) ServiceDTO {
	return ServiceDTO{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Unit:      s.Unit,
		Price:     s.Price,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
