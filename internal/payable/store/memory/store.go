// Package memory provides the map-backed installment store for tests and
// single-process runs.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tillbook/internal/payable/models"
	"tillbook/pkg/platform/sentinel"
)

type Store struct {
	mu           sync.RWMutex
	installments map[uuid.UUID]*models.Installment
}

func New() *Store {
	return &Store{installments: make(map[uuid.UUID]*models.Installment)}
}

func (s *Store) Save(ctx context.Context, i *models.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *i
	s.installments[i.ID] = &copied
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.installments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *i
	return &copied, nil
}

// Execute runs validate-then-mutate on one installment while holding the
// store lock, so concurrent settlements against the same installment
// serialize instead of both reading the pre-payment remaining amount.
func (s *Store) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Installment) error, mutate func(*models.Installment)) (*models.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.installments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(i); err != nil {
		return nil, err
	}
	mutate(i)
	copied := *i
	return &copied, nil
}
