package store

import (
	"context"
	"sync"

	"namereg/internal/subscription/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// InMemory keeps subscriptions in a mutex-guarded map keyed by user. One
// subscription per user follows from one name per owner.
type InMemory struct {
	mu   sync.RWMutex
	subs map[id.PrincipalID]*models.Subscription
}

func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[id.PrincipalID]*models.Subscription)}
}

func (s *InMemory) Create(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sub
	s.subs[stored.User] = &stored
	return nil
}

func (s *InMemory) FindByUser(_ context.Context, user id.PrincipalID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subs[user]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// SetActive flips the IsActive flag. The record itself is never removed.
func (s *InMemory) SetActive(_ context.Context, user id.PrincipalID, active bool) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[user]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	sub.IsActive = active
	copied := *sub
	return &copied, nil
}
