package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fdg312/food-advisor/internal/userctx"
	"github.com/google/uuid"
)

// Handlers handles HTTP requests for reports
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreate handles POST /v1/reports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
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

	report, err := h.service.CreateReport(r.Context(), userID, req.Format)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFormat):
			writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user_not_found", "User not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create report")
		}
		return
	}

	dto, err := h.toDTO(r, report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// HandleList handles GET /v1/reports?user_id=
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	requested := uuid.Nil
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user_id format")
			return
		}
		requested = id
	}
	userID, ok := resolveUser(w, r, requested)
	if !ok {
		return
	}

	reports, err := h.service.ListReports(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list reports")
		return
	}

	dtos := make([]ReportDTO, 0, len(reports))
	for i := range reports {
		dto, err := h.toDTO(r, &reports[i])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, ReportsResponse{Reports: dtos})
}

// HandleDownload handles GET /v1/reports/{id}/download
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid report ID")
		return
	}

	report, err := h.service.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report_not_found", "Report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load report")
		return
	}

	if h.service.Redirects() {
		url, err := h.service.DownloadURL(r.Context(), report, getBaseURL(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, contentType, err := h.service.ReportData(r.Context(), report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read report")
		return
	}

	filename := fmt.Sprintf("food_report_%s.%s", report.CreatedAt.UTC().Format("20060102"), report.Format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleDelete handles DELETE /v1/reports/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid report ID")
		return
	}

	if err := h.service.DeleteReport(r.Context(), reportID); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report_not_found", "Report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete report")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) toDTO(r *http.Request, report *Report) (ReportDTO, error) {
	url, err := h.service.DownloadURL(r.Context(), report, getBaseURL(r))
	if err != nil {
		return ReportDTO{}, err
	}
	return ReportDTO{
		ID:          report.ID,
		UserID:      report.UserID,
		Format:      report.Format,
		DownloadURL: url,
		SizeBytes:   report.SizeBytes,
		ItemsCount:  report.ItemsCount,
		Status:      report.Status,
		CreatedAt:   report.CreatedAt,
	}, nil
}

func resolveUser(w http.ResponseWriter, r *http.Request, requested uuid.UUID) (uuid.UUID, bool) {
	userID, err := userctx.Resolve(r.Context(), requested)
	switch {
	case errors.Is(err, userctx.ErrUserRequired):
		writeError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return uuid.Nil, false
	case err != nil:
		writeError(w, http.StatusNotFound, "user_not_found", "User not found")
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
