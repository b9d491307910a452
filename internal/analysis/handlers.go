package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fdg312/food-advisor/internal/userctx"
	"github.com/google/uuid"
)

// Handler содержит HTTP обработчики анализа
type Handler struct {
	service        *Service
	defaultPortion float64
}

// NewHandler создаёт handler; defaultPortion подставляется, если portion_grams не передан
func NewHandler(service *Service, defaultPortion float64) *Handler {
	if defaultPortion <= 0 {
		defaultPortion = 100
	}
	return &Handler{service: service, defaultPortion: defaultPortion}
}

// HandleAnalyze обрабатывает POST /v1/analyses
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	requested := uuid.Nil
	if req.UserID != nil {
		requested = *req.UserID
	}
	userID, ok := resolveUser(w, r, requested)
	if !ok {
		return
	}

	portion := h.defaultPortion
	if req.PortionGrams != nil {
		portion = *req.PortionGrams
	}

	rec, err := h.service.Analyze(r.Context(), userID, req.FoodName, portion)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HandleHistory обрабатывает GET /v1/analyses?user_id=&limit=&offset=
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	requested := uuid.Nil
	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user_id")
			return
		}
		requested = id
	}
	userID, ok := resolveUser(w, r, requested)
	if !ok {
		return
	}

	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, err := queryInt(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	items, err := h.service.History(r.Context(), userID, limit, offset)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Items: items})
}

func resolveUser(w http.ResponseWriter, r *http.Request, requested uuid.UUID) (uuid.UUID, bool) {
	userID, err := userctx.Resolve(r.Context(), requested)
	switch {
	case errors.Is(err, userctx.ErrUserRequired):
		writeError(w, http.StatusBadRequest, "user_id_required", "user_id is required")
		return uuid.Nil, false
	case err != nil:
		writeError(w, http.StatusNotFound, "user_not_found", "User not found")
		return uuid.Nil, false
	}
	return userID, true
}

// StatusForKind maps a failure kind to its HTTP status.
func StatusForKind(kind FailureKind) int {
	switch kind {
	case FailureInvalidRequest:
		return http.StatusBadRequest
	case FailureUserNotFound:
		return http.StatusNotFound
	case FailureCredential:
		return http.StatusUnprocessableEntity
	case FailureRateLimit:
		return http.StatusTooManyRequests
	case FailureTransport, FailureParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	var f *Failure
	if !errors.As(err, &f) {
		writeError(w, http.StatusInternalServerError, string(FailureInternal), "Analysis failed")
		return
	}
	if f.Kind == FailureRateLimit {
		w.Header().Set("Retry-After", "60")
	}
	writeError(w, StatusForKind(f.Kind), string(f.Kind), f.Message)
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
