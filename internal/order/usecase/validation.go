package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	"laundrypro/internal/dto"
	apperrors "laundrypro/internal/errors"
	"laundrypro/internal/identity"
	"laundrypro/internal/order/service"
)

const maxCustomerNameLength = 100

func toCreateInput(req dto.CreateOrderRequest) (service.CreateOrderInput, error) {
	var details []apperrors.ValidationDetail
	in := service.CreateOrderInput{CustomerID: strings.TrimSpace(req.CustomerID)}

	switch {
	case in.CustomerID != "":
	case req.Customer != nil:
		phone := strings.TrimSpace(req.Customer.Phone)
		name := strings.TrimSpace(req.Customer.Name)
		if phone == "" {
			details = append(details, apperrors.ValidationDetail{Field: "customer.phone", Message: "customer phone is required"})
		}
		if n := utf8.RuneCountInString(name); n == 0 || n > maxCustomerNameLength {
			details = append(details, apperrors.ValidationDetail{Field: "customer.name", Message: "customer name must be 1 to 100 characters"})
		}
		in.Customer = &identity.ContactInfo{Phone: phone, Name: name, Address: trimmed(req.Customer.Address)}
	default:
		details = append(details, apperrors.ValidationDetail{Field: "customerId", Message: "customerId or customer is required"})
	}

	if req.Note != nil {
		if utf8.RuneCountInString(*req.Note) > domain.MaxOrderNoteLength {
			details = append(details, apperrors.ValidationDetail{Field: "note", Message: "note exceeds 500 characters"})
		}
		in.Note = emptyToNil(req.Note)
	}

	switch {
	case len(req.Items) == 0:
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	case len(req.Items) > domain.MaxItemsPerOrder:
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items exceeds maximum of 100"})
	default:
		for idx, item := range req.Items {
			ni, d := toNewItem(fmt.Sprintf("items[%d].", idx), item)
			details = append(details, d...)
			in.Items = append(in.Items, ni)
		}
	}

	if len(details) > 0 {
		return service.CreateOrderInput{}, apperrors.NewValidationError("validation failed", details...)
	}
	return in, nil
}

func toNewItem(prefix string, req dto.CreateItemRequest) (service.NewItem, []apperrors.ValidationDetail) {
	var details []apperrors.ValidationDetail
	ni := service.NewItem{
		ServiceID: strings.TrimSpace(req.ServiceID),
		Quantity:  req.Quantity,
	}

	if ni.ServiceID == "" {
		details = append(details, apperrors.ValidationDetail{Field: prefix + "serviceId", Message: "serviceId is required"})
	}
	details = append(details, checkQuantity(prefix, req.Quantity)...)
	if req.UnitPrice != nil {
		details = append(details, checkUnitPrice(prefix, *req.UnitPrice)...)
		p := req.UnitPrice.Round(2)
		ni.UnitPrice = &p
	}
	if req.Note != nil {
		details = append(details, checkItemNote(prefix, *req.Note)...)
		ni.Note = emptyToNil(req.Note)
	}

	return ni, details
}

func toItemPatch(req dto.UpdateItemRequest) (domain.ItemPatch, error) {
	var details []apperrors.ValidationDetail
	patch := domain.ItemPatch{Quantity: req.Quantity}

	if req.Quantity != nil {
		details = append(details, checkQuantity("", *req.Quantity)...)
	}
	if req.UnitPrice != nil {
		details = append(details, checkUnitPrice("", *req.UnitPrice)...)
		p := req.UnitPrice.Round(2)
		patch.UnitPrice = &p
	}
	if req.Note != nil {
		details = append(details, checkItemNote("", *req.Note)...)
		patch.Note = emptyToNil(req.Note)
		patch.ClearNote = patch.Note == nil
	}

	if len(details) > 0 {
		return domain.ItemPatch{}, apperrors.NewValidationError("invalid item update", details...)
	}
	if patch.IsEmpty() {
		return domain.ItemPatch{}, apperrors.NewValidationError("nothing to update", apperrors.ValidationDetail{
			Field:   "body",
			Message: "one of quantity, unitPrice or note is required",
		})
	}
	return patch, nil
}

// validateOrderNote returns the note to store; an empty note clears it.
func validateOrderNote(note *string) (*string, error) {
	if note == nil {
		return nil, apperrors.NewValidationError("nothing to update", apperrors.ValidationDetail{
			Field:   "note",
			Message: "note is required",
		})
	}
	if utf8.RuneCountInString(*note) > domain.MaxOrderNoteLength {
		return nil, apperrors.NewValidationError("invalid note", apperrors.ValidationDetail{
			Field:   "note",
			Message: "note exceeds 500 characters",
		})
	}
	return emptyToNil(note), nil
}

func parseListQuery(q dto.ListOrdersQuery) (domain.OrderFilter, domain.Page, error) {
	f := domain.OrderFilter{
		CustomerID: strings.TrimSpace(q.CustomerID),
		StaffID:    strings.TrimSpace(q.StaffID),
	}

	var details []apperrors.ValidationDetail
	if q.Status != "" {
		st := domain.OrderStatus(q.Status)
		if !st.IsValid() {
			details = append(details, apperrors.ValidationDetail{Field: "status", Message: "unknown status"})
		} else {
			f.Status = &st
		}
	}

	r, d := commons.ParseDateRange(q.StartDate, q.EndDate)
	details = append(details, d...)
	f.From, f.To = r.From, r.To

	p, d := commons.ParsePage(q.Page, q.Limit)
	details = append(details, d...)

	if len(details) > 0 {
		return domain.OrderFilter{}, domain.Page{}, apperrors.NewValidationError("invalid query", details...)
	}
	return f, p, nil
}

func checkQuantity(prefix string, q int) []apperrors.ValidationDetail {
	if q < domain.MinItemQuantity || q > domain.MaxItemQuantity {
		return []apperrors.ValidationDetail{{Field: prefix + "quantity", Message: "quantity must be between 1 and 10000"}}
	}
	return nil
}

func checkUnitPrice(prefix string, p decimal.Decimal) []apperrors.ValidationDetail {
	if p.IsNegative() || p.GreaterThan(domain.MaxUnitPrice) {
		return []apperrors.ValidationDetail{{Field: prefix + "unitPrice", Message: "unitPrice must be between 0 and 1000000000"}}
	}
	return nil
}

func checkItemNote(prefix, note string) []apperrors.ValidationDetail {
	if utf8.RuneCountInString(note) > domain.MaxItemNoteLength {
		return []apperrors.ValidationDetail{{Field: prefix + "note", Message: "note exceeds 200 characters"}}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
