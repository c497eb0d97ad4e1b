package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/logger"
	"bloodbridge-backend/internal/service"
)

type contextKey string

const callerKey contextKey = "caller"

// CallerFrom extracts the authenticated principal placed by AuthMiddleware.
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// AuthMiddleware validates the bearer token and resolves it to a tagged
// caller identity exactly once per request. Handlers downstream never
// touch raw claims.
func AuthMiddleware(authSvc service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing authorization header"})
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "malformed authorization header"})
				return
			}

			caller, err := authSvc.ResolveCaller(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	return caller, ok
}

func requireUser(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return caller, false
	}
	if !caller.IsUser() {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return caller, false
	}
	return caller, true
}

func requireOrganization(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return caller, false
	}
	if !caller.IsOrganization() {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return caller, false
	}
	return caller, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return caller, false
	}
	if !caller.IsAdmin() {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return caller, false
	}
	return caller, true
}

// LoggingMiddleware records method, path, status and latency per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
