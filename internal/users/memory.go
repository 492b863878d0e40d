package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory UserRepository and MetadataOutbox with the same
// duplicate and not-found semantics as the Mongo implementation. Used by tests and
// local runs without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		store: make(map[string]*models.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.ExternalID]; ok {
		return nil, fmt.Errorf("%w: externalId=%s", ErrDuplicateUser, u.ExternalID)
	}
	stored := *u
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.store[stored.ExternalID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryRepository) UpdateByExternalID(ctx context.Context, externalID string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[externalID]
	if !ok {
		return nil, nil
	}
	if upd.Email != "" {
		u.Email = upd.Email
	}
	u.Username = upd.Username
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.Photo = upd.Photo
	u.UpdatedAt = m.now()
	out := *u
	return &out, nil
}

func (m *MemoryRepository) DeleteByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[externalID]
	if !ok {
		return nil, nil
	}
	delete(m.store, externalID)
	return u, nil
}

func (m *MemoryRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[externalID]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *MemoryRepository) ClaimPendingMetadata(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := make([]*models.User, 0)
	for _, u := range m.store {
		if u.MetadataPending && !u.MetadataRetryAt.After(now) {
			due = append(due, u)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	out := make([]models.User, 0, len(due))
	for _, u := range due {
		u.MetadataRetryAt = now.Add(lease)
		out = append(out, *u)
	}
	return out, nil
}

func (m *MemoryRepository) MarkMetadataSynced(ctx context.Context, externalID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[externalID]
	if !ok {
		return nil
	}
	u.MetadataPending = false
	u.MetadataSyncedAt = &at
	u.MetadataError = ""
	u.MetadataRetryAt = time.Time{}
	return nil
}

func (m *MemoryRepository) MarkMetadataFailed(ctx context.Context, externalID string, retryAt time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[externalID]
	if !ok {
		return nil
	}
	u.MetadataRetryAt = retryAt
	u.MetadataError = reason
	u.MetadataAttempts++
	return nil
}
