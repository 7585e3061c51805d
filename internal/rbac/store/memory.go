package store

import (
	"context"
	"sync"

	"namereg/internal/rbac/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// InMemory keeps role assignments in a mutex-guarded map. The Upsert
// callback runs under the same lock as the write, which is what makes the
// last-admin and single-bootstrap guards safe under concurrency.
type InMemory struct {
	mu    sync.RWMutex
	roles map[id.PrincipalID]models.Assignment
}

func NewInMemory() *InMemory {
	return &InMemory{roles: make(map[id.PrincipalID]models.Assignment)}
}

func (s *InMemory) Find(_ context.Context, principal id.PrincipalID) (models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if assignment, ok := s.roles[principal]; ok {
		return assignment, nil
	}
	return models.Assignment{}, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, 0, len(s.roles))
	for _, assignment := range s.roles {
		out = append(out, assignment)
	}
	return out, nil
}

func (s *InMemory) CountAdmins(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countAdminsLocked(), nil
}

func (s *InMemory) Upsert(_ context.Context, assignment models.Assignment, validate func(current models.Role, adminCount int) error) (models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := models.RoleGuest
	if existing, ok := s.roles[assignment.Principal]; ok {
		current = existing.Role
		assignment.CreatedAt = existing.CreatedAt
	}

	if validate != nil {
		if err := validate(current, s.countAdminsLocked()); err != nil {
			return models.Assignment{}, err
		}
	}

	s.roles[assignment.Principal] = assignment
	return assignment, nil
}

func (s *InMemory) countAdminsLocked() int {
	count := 0
	for _, assignment := range s.roles {
		if assignment.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}
