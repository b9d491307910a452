package memory

import (
	"context"
	"time"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) CreateAnalysis(ctx context.Context, a *storage.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	stored := *a
	stored.Benefits = cloneStrings(a.Benefits)
	stored.Warnings = cloneStrings(a.Warnings)
	m.analyses[a.UserID] = append(m.analyses[a.UserID], stored)
	return nil
}

// ListAnalyses возвращает анализы в обратном порядке добавления
func (m *MemoryStorage) ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.analyses[userID]
	if offset < 0 {
		offset = 0
	}
	out := []storage.Analysis{}
	for i := len(items) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		a := items[i]
		a.Benefits = cloneStrings(a.Benefits)
		a.Warnings = cloneStrings(a.Warnings)
		out = append(out, a)
	}
	return out, nil
}

func (m *MemoryStorage) DeleteAnalysesByUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.analyses, userID)
	return nil
}
