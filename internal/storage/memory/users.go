package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTakenLocked(user.Email, uuid.Nil) {
		return storage.ErrConflict
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = cloneUser(*user)
	return nil
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if m.emailTakenLocked(user.Email, user.ID) {
		return storage.ErrConflict
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = cloneUser(*user)
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emailTakenLocked(email, uuid.Nil), nil
}

func (m *MemoryStorage) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStorage) ListUsers(ctx context.Context) ([]storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]storage.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// emailTakenLocked reports whether another user (not skip) owns the email.
func (m *MemoryStorage) emailTakenLocked(email string, skip uuid.UUID) bool {
	email = strings.TrimSpace(email)
	for id, u := range m.users {
		if id != skip && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func cloneUser(u storage.User) storage.User {
	u.HealthConditions = cloneStrings(u.HealthConditions)
	return u
}
