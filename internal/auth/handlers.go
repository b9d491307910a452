package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/food-advisor/internal/users"
	"github.com/google/uuid"
)

// CurrentUser returns the profile for GET /v1/me.
type CurrentUser interface {
	Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
}

type Handlers struct {
	service *Service
	users   CurrentUser
}

func NewHandlers(service *Service, users CurrentUser) *Handlers {
	return &Handlers{service: service, users: users}
}

// HandleLogin handles POST /v1/auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthDisabled):
			writeErrorResponse(w, http.StatusNotFound, "auth_disabled", "Authentication is disabled")
		case errors.Is(err, ErrUnknownEmail):
			writeErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Unknown email")
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /v1/me
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
