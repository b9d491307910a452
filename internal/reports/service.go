package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/food-advisor/internal/blob"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/fdg312/food-advisor/internal/userctx"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrUserNotFound   = errors.New("user not found")
	ErrReportNotFound = errors.New("report not found")
)

// Options configures where report bytes live and how they are downloaded.
type Options struct {
	// Redirect makes downloads answer with a URL instead of the bytes.
	Redirect        bool
	PresignTTL      time.Duration
	PublicBaseURL   string
	PreferPublicURL bool
}

// Service handles reports business logic
type Service struct {
	reports   storage.ReportsStorage
	users     UserSource
	generator *Generator
	blobStore blob.Store
	opts      Options
	logger    zerolog.Logger
}

func NewService(
	reports storage.ReportsStorage,
	users UserSource,
	generator *Generator,
	blobStore blob.Store,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	return &Service{
		reports:   reports,
		users:     users,
		generator: generator,
		blobStore: blobStore,
		opts:      opts,
		logger:    logger.With().Str("component", "reports").Logger(),
	}
}

// Redirects reports whether downloads are served as a redirect.
func (s *Service) Redirects() bool {
	return s.opts.Redirect
}

// CreateReport renders the user's latest analyses and stores the result.
func (s *Service) CreateReport(ctx context.Context, userID uuid.UUID, format string) (*Report, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	data, items, err := s.generator.GenerateReport(ctx, userID, format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	reportID := uuid.New()
	objectKey := fmt.Sprintf("reports/%s/%s.%s", userID, reportID, format)
	contentType := contentTypeFor(format)

	size, err := s.blobStore.PutObject(ctx, objectKey, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	meta := &storage.ReportMeta{
		ID:          reportID,
		UserID:      userID,
		Format:      format,
		ObjectKey:   &objectKey,
		SizeBytes:   size,
		ItemsCount:  items,
		Status:      StatusReady,
		ContentType: contentType,
	}
	if err := s.reports.CreateReport(ctx, meta); err != nil {
		if delErr := s.blobStore.DeleteObject(ctx, objectKey); delErr != nil {
			s.logger.Warn().Err(delErr).Str("object_key", objectKey).Msg("failed to clean up orphaned report object")
		}
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	s.logger.Info().
		Str("report_id", reportID.String()).
		Str("user_id", userID.String()).
		Str("format", format).
		Int("items", items).
		Int64("size_bytes", size).
		Msg("report created")

	return toReport(meta), nil
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	meta, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

// ListReports lists reports for a user, newest first
func (s *Service) ListReports(ctx context.Context, userID uuid.UUID) ([]Report, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	metaList, err := s.reports.ListReports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]Report, len(metaList))
	for i := range metaList {
		out[i] = *toReport(&metaList[i])
	}
	return out, nil
}

// DeleteReport removes the object and then the metadata.
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			s.logger.Warn().Err(err).Str("report_id", id.String()).Msg("failed to delete report object")
		}
	}

	if err := s.reports.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL returns where a client fetches the report from.
func (s *Service) DownloadURL(ctx context.Context, report *Report, baseURL string) (string, error) {
	if !s.opts.Redirect {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), report.ID), nil
	}

	if report.ObjectKey == "" {
		return "", fmt.Errorf("object key is missing")
	}

	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/" + report.ObjectKey, nil
	}

	url, err := s.blobStore.PresignGet(ctx, report.ObjectKey, s.opts.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// ReportData returns the stored bytes and their content type.
func (s *Service) ReportData(ctx context.Context, report *Report) ([]byte, string, error) {
	if report.ObjectKey == "" {
		return nil, "", fmt.Errorf("object key is missing")
	}
	data, err := s.blobStore.GetObject(ctx, report.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read report: %w", err)
	}
	return data, report.ContentType, nil
}

// load fetches a report the current user may see; others look missing.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reports.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	if current, ok := userctx.GetUserID(ctx); ok && current != meta.UserID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func toReport(meta *storage.ReportMeta) *Report {
	r := &Report{
		ID:          meta.ID,
		UserID:      meta.UserID,
		Format:      meta.Format,
		SizeBytes:   meta.SizeBytes,
		ItemsCount:  meta.ItemsCount,
		Status:      meta.Status,
		ContentType: meta.ContentType,
		CreatedAt:   meta.CreatedAt,
	}
	if meta.ObjectKey != nil {
		r.ObjectKey = *meta.ObjectKey
	}
	if r.ContentType == "" {
		r.ContentType = contentTypeFor(r.Format)
	}
	return r
}
