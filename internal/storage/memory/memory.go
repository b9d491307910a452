package memory

import (
	"sync"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage — in-memory реализация storage.Storage
type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]storage.User
	analyses map[uuid.UUID][]storage.Analysis
	reports  map[uuid.UUID]*storage.ReportMeta
}

var _ storage.Storage = (*MemoryStorage)(nil)

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[uuid.UUID]storage.User),
		analyses: make(map[uuid.UUID][]storage.Analysis),
		reports:  make(map[uuid.UUID]*storage.ReportMeta),
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
