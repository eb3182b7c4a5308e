package commons

import (
	"strconv"
	"strings"
	"time"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
)

const (
	DateLayout   = "2006-01-02"
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ParseDateRange parses inclusive YYYY-MM-DD bounds in UTC. The end date
// covers its whole day, up to 23:59:59.999.
func ParseDateRange(start, end string) (domain.DateRange, []apperrors.ValidationDetail) {
	var (
		r       domain.DateRange
		details []apperrors.ValidationDetail
	)

	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "startDate", Message: "startDate must be YYYY-MM-DD"})
		} else {
			r.From = &t
		}
	}
	if e := strings.TrimSpace(end); e != "" {
		t, err := time.ParseInLocation(DateLayout, e, time.UTC)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "endDate", Message: "endDate must be YYYY-MM-DD"})
		} else {
			t = t.Add(24*time.Hour - time.Millisecond)
			r.To = &t
		}
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		details = append(details, apperrors.ValidationDetail{Field: "endDate", Message: "endDate must not be before startDate"})
	}

	return r, details
}

// ParsePage applies the listing defaults and bounds to raw page and limit.
func ParsePage(page, limit string) (domain.Page, []apperrors.ValidationDetail) {
	p := domain.Page{Number: DefaultPage, Limit: DefaultLimit}
	var details []apperrors.ValidationDetail

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			details = append(details, apperrors.ValidationDetail{Field: "page", Message: "page must be a positive integer"})
		} else {
			p.Number = n
		}
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > MaxLimit {
			details = append(details, apperrors.ValidationDetail{Field: "limit", Message: "limit must be between 1 and 100"})
		} else {
			p.Limit = n
		}
	}

	return p, details
}
