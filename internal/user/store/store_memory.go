package store

import (
	"context"
	"sync"

	"tillbook/internal/user/models"
	"tillbook/pkg/platform/sentinel"
)

// InMemory is a map-backed user store for tests and single-process runs.
type InMemory struct {
	mu      sync.RWMutex
	byLogin map[string]models.User
}

func NewInMemory() *InMemory {
	return &InMemory{byLogin: make(map[string]models.User)}
}

func (s *InMemory) Save(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byLogin[u.Username] = u
	return nil
}

func (s *InMemory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byLogin[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := u
	return &copied, nil
}
