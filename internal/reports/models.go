package reports

import (
	"time"

	"github.com/google/uuid"
)

// Report — метаданные сформированного отчёта
type Report struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Format      string // "pdf" or "csv"
	ObjectKey   string
	SizeBytes   int64
	ItemsCount  int
	Status      string
	ContentType string
	CreatedAt   time.Time
}

// CreateReportRequest is the request to create a new report
type CreateReportRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Format string     `json:"format"` // "pdf" or "csv"
}

// ReportDTO is the response representation of a report
type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	ItemsCount  int       `json:"items_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportsResponse is the list response
type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady = "ready"
)

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
