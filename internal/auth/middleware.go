package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Middleware — middleware для проверки авторизации
type Middleware struct {
	required bool
	service  *Service
	logger   zerolog.Logger
}

func NewMiddleware(required bool, service *Service, logger zerolog.Logger) *Middleware {
	return &Middleware{
		required: required,
		service:  service,
		logger:   logger.With().Str("component", "auth_middleware").Logger(),
	}
}

// Handler picks RequireAuth or OptionalAuth depending on configuration.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.required {
		return m.RequireAuth(next)
	}
	return m.OptionalAuth(next)
}

// RequireAuth — middleware для защиты эндпоинтов
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth validates Bearer token only when it is provided.
// Without token, requests pass through unchanged.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		m.logger.Debug().Str("sub", userID.String()).Str("method", r.Method).Str("path", r.URL.Path).Msg("auth token accepted")
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (uuid.UUID, error) {
	if authHeader == "" {
		return uuid.Nil, ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return uuid.Nil, ErrInvalidToken
	}

	return m.service.VerifyJWT(strings.TrimSpace(parts[1]))
}

// isPublic: healthz, login and registration never need a token.
func isPublic(r *http.Request) bool {
	path := r.URL.Path
	if path == "/healthz" || strings.HasPrefix(path, "/v1/auth/") {
		return true
	}
	return r.Method == http.MethodPost && path == "/v1/users"
}
