package repo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"secrets-service/internal/domain"
)

// MemoryStore is an in-process UserStore with the same uniqueness
// semantics as the Mongo indexes. It backs the handler test suite and is
// not wired into the server binary.
type MemoryStore struct {
	mu    sync.Mutex
	users []*domain.User

	// Fail simulates a store outage: every operation returns it when set.
	Fail error
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	for _, u := range m.users {
		if u.Username != "" && u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	u := m.byGoogleIDLocked(googleID)
	if u == nil {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for _, e := range m.users {
		if u.Username != "" && e.Username == u.Username {
			return ErrDuplicate
		}
		if u.GoogleID != "" && e.GoogleID == u.GoogleID {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *MemoryStore) FindOrCreateByGoogleID(ctx context.Context, googleID string, defaults domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	if existing := m.byGoogleIDLocked(googleID); existing != nil {
		cp := *existing
		return &cp, nil
	}
	u := &domain.User{
		ID:        primitive.NewObjectID(),
		GoogleID:  googleID,
		Username:  defaults.Username,
		Name:      defaults.Name,
		Picture:   defaults.Picture,
		Provider:  "google",
		CreatedAt: time.Now().UTC(),
	}
	m.users = append(m.users, u)
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fail
}

// Len reports the number of stored users (test helper).
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MemoryStore) byGoogleIDLocked(googleID string) *domain.User {
	for _, u := range m.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			return u
		}
	}
	return nil
}
