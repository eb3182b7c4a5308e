package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"laundrypro/internal/commons"
	"laundrypro/internal/domain"
	apperrors "laundrypro/internal/errors"
)

const (
	TraceIDHeader = "X-Trace-ID"
	UserIDHeader  = "X-User-ID"
)

type CallerResolver interface {
	ResolveCaller(ctx context.Context, id string) (*domain.Caller, error)
}

// Trace tags every request with a trace id, reusing the caller's one when
// present, and echoes it back in the response header.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(TraceIDHeader))
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(TraceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(commons.WithTraceID(r.Context(), traceID)))
	})
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request handled",
				zap.String("traceId", commons.TraceID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Authenticate resolves the identity forwarded by the upstream gateway in
// X-User-ID and stores the caller in the request context.
func Authenticate(resolver CallerResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(UserIDHeader))
			caller, err := resolver.ResolveCaller(r.Context(), id)
			if err != nil {
				commons.WriteError(w, r, err, logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(commons.WithCaller(r.Context(), *caller)))
		})
	}
}

// RequireRole lets the request through only for the given roles. It must run
// after Authenticate.
func RequireRole(logger *zap.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := commons.CallerFrom(r.Context())
			if !ok {
				commons.WriteError(w, r, apperrors.NewUnauthorizedError("authentication required"), logger)
				return
			}
			if !allowed[caller.Role] {
				commons.WriteError(w, r, apperrors.NewForbiddenError("role "+string(caller.Role)+" may not access this resource"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
