package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/food-advisor/internal/nutrition"
	"github.com/fdg312/food-advisor/internal/userctx"
	"github.com/google/uuid"
)

// Handler содержит HTTP обработчики для пользователей
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleRegister обрабатывает POST /v1/users
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.sendServiceError(w, err, "Failed to register user")
		return
	}

	h.sendJSON(w, http.StatusCreated, user)
}

// HandleList обрабатывает GET /v1/users. С авторизацией возвращает только текущего пользователя.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if current, ok := userctx.GetUserID(r.Context()); ok {
		user, err := h.service.Get(r.Context(), current)
		if err != nil {
			h.sendServiceError(w, err, "Failed to list users")
			return
		}
		h.sendJSON(w, http.StatusOK, UsersResponse{Users: []UserDTO{*user}})
		return
	}

	list, err := h.service.List(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Failed to list users")
		return
	}
	h.sendJSON(w, http.StatusOK, UsersResponse{Users: list})
}

// HandleGet обрабатывает GET /v1/users/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.sendServiceError(w, err, "Failed to get user")
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

// HandleUpdate обрабатывает PUT /v1/users/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	user, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.sendServiceError(w, err, "Failed to update user")
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

// HandleDelete обрабатывает DELETE /v1/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.sendServiceError(w, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveID читает {id} из пути и проверяет владельца
func (h *Handler) resolveID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	requested, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid user ID")
		return uuid.Nil, false
	}
	id, err := userctx.Resolve(r.Context(), requested)
	if err != nil {
		// 404 вместо 403, чтобы не раскрывать существование пользователя
		h.sendError(w, http.StatusNotFound, "user_not_found", "User not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		h.sendError(w, http.StatusBadRequest, "invalid_email", "Invalid email")
	case errors.Is(err, ErrEmailTaken):
		h.sendError(w, http.StatusConflict, "email_taken", "Email is already registered")
	case errors.Is(err, ErrNotFound):
		h.sendError(w, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, nutrition.ErrInvalidName):
		h.sendError(w, http.StatusBadRequest, "invalid_name", err.Error())
	case errors.Is(err, nutrition.ErrInvalidAge):
		h.sendError(w, http.StatusBadRequest, "invalid_age", err.Error())
	case errors.Is(err, nutrition.ErrInvalidGender):
		h.sendError(w, http.StatusBadRequest, "invalid_gender", err.Error())
	case errors.Is(err, nutrition.ErrInvalidWeight):
		h.sendError(w, http.StatusBadRequest, "invalid_weight", err.Error())
	case errors.Is(err, nutrition.ErrInvalidHeight):
		h.sendError(w, http.StatusBadRequest, "invalid_height", err.Error())
	case errors.Is(err, nutrition.ErrInvalidActivityLevel):
		h.sendError(w, http.StatusBadRequest, "invalid_activity_level", err.Error())
	default:
		h.sendError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
