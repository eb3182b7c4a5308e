package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
)

type stubResolver map[string]domain.Caller

func (s stubResolver) ResolveCaller(ctx context.Context, id string) (*domain.Caller, error) {
	if id == "suspended" {
		return nil, apperrors.NewForbiddenError("account is suspended")
	}
	c, ok := s[id]
	if !ok {
		return nil, apperrors.NewUnauthorizedError("unknown caller identity")
	}
	return &c, nil
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	resolver := stubResolver{
		"u-admin": {ID: "u-admin", Role: domain.RoleAdmin},
		"u-cust":  {ID: "u-cust", Role: domain.RoleCustomer},
	}
	var seen domain.Caller
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = commons.CallerFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(resolver, zap.NewNop())(RequireRole(zap.NewNop(), domain.RoleAdmin)(final))

	tests := []struct {
		name   string
		userID string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"unknown user", "ghost", http.StatusUnauthorized},
		{"suspended", "suspended", http.StatusForbidden},
		{"wrong role", "u-cust", http.StatusForbidden},
		{"admin", "u-admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req.Header.Set(UserIDHeader, tt.userID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, "u-admin", seen.ID)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	handler := RequireRole(zap.NewNop(), domain.RoleStaff)(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
