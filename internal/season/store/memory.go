package store

import (
	"context"
	"sort"
	"sync"

	"namereg/internal/season/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// InMemory keeps seasons in a mutex-guarded map. One lock covers the whole
// collection, so Execute can observe "is any other season active" and apply
// a transition without another writer slipping in between.
type InMemory struct {
	mu      sync.RWMutex
	seasons map[id.SeasonID]*models.Season
	nextID  id.SeasonID
}

func NewInMemory() *InMemory {
	return &InMemory{seasons: make(map[id.SeasonID]*models.Season), nextID: 1}
}

// Create assigns the next sequential id and stores the season.
func (s *InMemory) Create(_ context.Context, season *models.Season) (*models.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	season.ID = s.nextID
	s.nextID++

	stored := *season
	s.seasons[stored.ID] = &stored
	return season, nil
}

func (s *InMemory) FindByID(_ context.Context, seasonID id.SeasonID) (*models.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if season, ok := s.seasons[seasonID]; ok {
		copied := *season
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindActive returns the single active season, or ErrNotFound.
func (s *InMemory) FindActive(_ context.Context) (*models.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, season := range s.seasons {
		if season.Status == models.SeasonStatusActive {
			copied := *season
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Season, 0, len(s.seasons))
	for _, season := range s.seasons {
		copied := *season
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Execute runs validate and mutate on one season while holding the store
// lock. The validate callback additionally sees whether any other season is
// currently active, which is what the single-active invariant hangs on.
func (s *InMemory) Execute(_ context.Context, seasonID id.SeasonID,
	validate func(season *models.Season, otherActive bool) error,
	mutate func(season *models.Season)) (*models.Season, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	season, ok := s.seasons[seasonID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	otherActive := false
	for otherID, other := range s.seasons {
		if otherID != seasonID && other.Status == models.SeasonStatusActive {
			otherActive = true
			break
		}
	}

	if validate != nil {
		if err := validate(season, otherActive); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(season)
	}

	copied := *season
	return &copied, nil
}
