package store

import (
	"context"
	"sync"

	"namereg/internal/content/models"
	"namereg/pkg/platform/sentinel"
)

type entryKey struct {
	name string
	kind models.Kind
}

// InMemory is a plain keyed store for name content. No invariants beyond
// last-write-wins.
type InMemory struct {
	mu      sync.RWMutex
	entries map[entryKey]*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[entryKey]*models.Entry)}
}

func (s *InMemory) Get(_ context.Context, name string, kind models.Kind) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[entryKey{name: name, kind: kind}]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Put(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	s.entries[entryKey{name: stored.Name, kind: stored.Kind}] = &stored
	return nil
}
