package commons

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	callerKey
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey).(domain.Caller)
	return c, ok
}

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

// WriteError maps a typed error to its status code and a stable body.
// Untyped errors are logged and reported as a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	traceID := TraceID(r.Context())
	resp := ErrorResponse{TraceID: traceID, Timestamp: time.Now().UTC()}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Status, resp.Code, resp.Message, resp.Details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details
	} else if nfe, ok := apperrors.IsNotFoundError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusNotFound, "NOT_FOUND", nfe.Message
	} else if ise, ok := apperrors.IsInvalidStateError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusConflict, "INVALID_STATE", ise.Message
	} else if fe, ok := apperrors.IsForbiddenError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusForbidden, "FORBIDDEN", fe.Message
	} else if ue, ok := apperrors.IsUnauthorizedError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusUnauthorized, "UNAUTHORIZED", ue.Message
	} else if de, ok := apperrors.IsDeadlockError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusConflict, "DEADLOCK", de.Message
	} else {
		logger.Error("unexpected error",
			zap.String("traceId", traceID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		resp.Status, resp.Code, resp.Message = http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	}

	WriteJSON(w, resp.Status, resp, logger)
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// DecodeJSON decodes the request body into dst, reporting malformed JSON as
// a validation error.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}
