package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	seasonmetrics "namereg/internal/season/metrics"
	"namereg/internal/season/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/requestcontext"
)

// SeasonStore persists seasons. Execute runs validate and mutate while
// holding the store's lock, with the cross-row "another season is active"
// fact pinned for the duration.
type SeasonStore interface {
	Create(ctx context.Context, season *models.Season) (*models.Season, error)
	FindByID(ctx context.Context, seasonID id.SeasonID) (*models.Season, error)
	FindActive(ctx context.Context) (*models.Season, error)
	List(ctx context.Context) ([]*models.Season, error)
	Execute(ctx context.Context, seasonID id.SeasonID,
		validate func(season *models.Season, otherActive bool) error,
		mutate func(season *models.Season)) (*models.Season, error)
}

// RegistrationCounter reports the live number of committed names for a
// season. ActiveSeasonInfo must not cache this; staleness would let a full
// season look open.
type RegistrationCounter interface {
	CountBySeason(ctx context.Context, seasonID id.SeasonID) (uint32, error)
}

// AdminGate authorizes admin-only mutations.
type AdminGate interface {
	RequireAdmin(ctx context.Context, caller id.PrincipalID) error
}

// Service owns the season collection and its lifecycle.
type Service struct {
	seasons SeasonStore
	gate    AdminGate
	counter RegistrationCounter
	metrics *seasonmetrics.Metrics
	logger  *slog.Logger
}

func New(seasons SeasonStore, gate AdminGate, counter RegistrationCounter, metrics *seasonmetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		seasons: seasons,
		gate:    gate,
		counter: counter,
		metrics: metrics,
		logger:  logger,
	}
}

// Create validates parameters and stores a new Draft season. Admin only.
func (s *Service) Create(ctx context.Context, caller id.PrincipalID, name string, start, end time.Time, maxNames, minLen, maxLen uint32, price uint64) (*models.Season, error) {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	season, err := models.NewSeason(name, start, end, maxNames, minLen, maxLen, price, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	created, err := s.seasons.Create(ctx, season)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create season")
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "season created",
		"season_id", created.ID.String(),
		"name", created.Name,
	)
	return created, nil
}

// Activate transitions a Draft season to Active. Fails with AlreadyActive
// if any other season is active, and NotDraft if the target is not a draft.
// Both checks and the transition happen under the store lock.
func (s *Service) Activate(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error) {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	season, err := s.seasons.Execute(ctx, seasonID,
		func(season *models.Season, otherActive bool) error {
			if otherActive {
				return dErrors.New(dErrors.CodeAlreadyActive, "another season is already active")
			}
			return season.CanActivate()
		},
		func(season *models.Season) {
			season.ApplyActivation(now)
		},
	)
	if err != nil {
		return nil, wrapSeasonErr(err)
	}

	s.metrics.IncrementTransition(string(models.SeasonStatusActive))
	s.logger.InfoContext(ctx, "season activated", "season_id", season.ID.String())
	return season, nil
}

// End transitions an Active season to Ended.
func (s *Service) End(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error) {
	return s.terminate(ctx, caller, seasonID, models.SeasonStatusEnded)
}

// Cancel transitions an Active season to Cancelled.
func (s *Service) Cancel(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error) {
	return s.terminate(ctx, caller, seasonID, models.SeasonStatusCancelled)
}

func (s *Service) terminate(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID, to models.SeasonStatus) (*models.Season, error) {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	season, err := s.seasons.Execute(ctx, seasonID,
		func(season *models.Season, _ bool) error {
			if to == models.SeasonStatusEnded {
				return season.CanEnd()
			}
			return season.CanCancel()
		},
		func(season *models.Season) {
			if to == models.SeasonStatusEnded {
				season.ApplyEnd(now)
			} else {
				season.ApplyCancel(now)
			}
		},
	)
	if err != nil {
		return nil, wrapSeasonErr(err)
	}

	s.metrics.IncrementTransition(string(to))
	s.logger.InfoContext(ctx, "season closed",
		"season_id", season.ID.String(),
		"status", string(season.Status),
	)
	return season, nil
}

// Get returns one season by id. Open query.
func (s *Service) Get(ctx context.Context, seasonID id.SeasonID) (*models.Season, error) {
	season, err := s.seasons.FindByID(ctx, seasonID)
	if err != nil {
		return nil, wrapSeasonErr(err)
	}
	return season, nil
}

// List returns every season. Open query.
func (s *Service) List(ctx context.Context) ([]*models.Season, error) {
	return s.seasons.List(ctx)
}

// ActiveInfo describes the currently active season for registrants.
type ActiveInfo struct {
	Season         *models.Season `json:"season"`
	AvailableNames uint32         `json:"available_names"`
	Price          uint64         `json:"price"`
}

// ActiveSeasonInfo returns the active season with its live remaining
// capacity, or NoActiveSeason.
func (s *Service) ActiveSeasonInfo(ctx context.Context) (*ActiveInfo, error) {
	season, err := s.seasons.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoActiveSeason, "no season is currently active")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up active season")
	}

	count, err := s.counter.CountBySeason(ctx, season.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count registrations")
	}

	available := uint32(0)
	if count < season.MaxNames {
		available = season.MaxNames - count
	}
	return &ActiveInfo{Season: season, AvailableNames: available, Price: season.Price}, nil
}

func wrapSeasonErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "season not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "season store failure")
}
