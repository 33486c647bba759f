package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"vanlang-chatbot/internal/common/auth"
	apperrors "vanlang-chatbot/internal/common/errors"
	"vanlang-chatbot/internal/common/metrics"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	identityKey  contextKey = "identity"

	HeaderRequestID = "X-Request-ID"
)

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// IdentityFrom returns the authenticated caller, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

		s.logger.Info("http request", map[string]interface{}{
			"requestId":  RequestID(r.Context()),
			"method":     r.Method,
			"route":      route,
			"status":     rec.status,
			"durationMs": elapsed.Milliseconds(),
		})
	})
}

// authMiddleware attaches the caller's identity when one can be resolved.
// Anonymous requests pass through; each handler decides what that means.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.auth.Authenticate(r)
		if err != nil {
			if !errors.Is(err, auth.ErrMissingCredentials) {
				s.logger.Warn("authentication failed", map[string]interface{}{
					"requestId": RequestID(r.Context()),
					"error":     err.Error(),
				})
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// requireAdmin rejects anonymous callers with 401 and non-admins with 403.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r.Context())
		if id == nil {
			s.errors.HandleHTTPError(w, r, apperrors.NewAuthenticationError("Unauthorized"))
			return
		}
		if !id.HasRole(s.config.AdminRole) {
			s.errors.HandleHTTPError(w, r, apperrors.NewForbiddenError())
			return
		}
		next(w, r)
	}
}
