package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

// CreateReport создаёт новый отчёт
func (m *MemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

// GetReport возвращает отчёт по ID
func (m *MemoryStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *report
	return &out, nil
}

// ListReports возвращает отчёты пользователя
func (m *MemoryStorage) ListReports(ctx context.Context, userID uuid.UUID) ([]storage.ReportMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ReportMeta{}
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}

	// created_at DESC
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteReport удаляет отчёт
func (m *MemoryStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reports[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}
