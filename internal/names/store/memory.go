package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"namereg/internal/names/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
)

// InMemory keeps name records in mutex-guarded maps, indexed by name and by
// owner. Commit re-validates both uniqueness rules under the same lock that
// performs the write, so a record observed as absent cannot appear between
// the check and the insert.
type InMemory struct {
	mu      sync.RWMutex
	byName  map[string]*models.NameRecord
	byOwner map[id.PrincipalID]*models.NameRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		byName:  make(map[string]*models.NameRecord),
		byOwner: make(map[id.PrincipalID]*models.NameRecord),
	}
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.byName[name]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByOwner(_ context.Context, owner id.PrincipalID) (*models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.byOwner[owner]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.NameRecord, 0, len(s.byName))
	for _, record := range s.byName {
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) CountBySeason(_ context.Context, seasonID id.SeasonID) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count uint32
	for _, record := range s.byName {
		if record.SeasonID == seasonID {
			count++
		}
	}
	return count, nil
}

// Commit inserts a record after re-checking both uniqueness rules under the
// write lock. Callers validate earlier for a friendly failure, but this
// check is the one that holds.
func (s *InMemory) Commit(_ context.Context, record *models.NameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[record.Name]; ok {
		return dErrors.Newf(dErrors.CodeNameTaken, "name %q is already registered", record.Name)
	}
	if _, ok := s.byOwner[record.Owner]; ok {
		return dErrors.New(dErrors.CodeAlreadyRegistered, "owner already holds a name")
	}

	stored := *record
	s.byName[stored.Name] = &stored
	s.byOwner[stored.Owner] = &stored
	return nil
}

// TouchUpdated bumps UpdatedAt on a record when associated content changes.
func (s *InMemory) TouchUpdated(_ context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byName[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.UpdatedAt = now
	return nil
}
