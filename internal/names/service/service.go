package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"namereg/internal/names/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/requestcontext"
)

// NameStore persists name records. Commit must re-validate both uniqueness
// rules atomically with the write (memory store holds its lock, Postgres
// relies on constraints); the service-level lookups are advisory.
type NameStore interface {
	FindByName(ctx context.Context, name string) (*models.NameRecord, error)
	FindByOwner(ctx context.Context, owner id.PrincipalID) (*models.NameRecord, error)
	List(ctx context.Context) ([]*models.NameRecord, error)
	CountBySeason(ctx context.Context, seasonID id.SeasonID) (uint32, error)
	Commit(ctx context.Context, record *models.NameRecord) error
	TouchUpdated(ctx context.Context, name string, now time.Time) error
}

// Service owns the ledger of claimed names.
type Service struct {
	names  NameStore
	logger *slog.Logger
}

func New(names NameStore, logger *slog.Logger) *Service {
	return &Service{names: names, logger: logger}
}

// IsNameTaken reports whether a name is already claimed.
func (s *Service) IsNameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.names.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "name lookup failed")
	}
	return true, nil
}

// OwnerHasName reports whether the owner already holds any name. The rule
// is global: one name per owner for the lifetime of the service, regardless
// of which season it was claimed in.
func (s *Service) OwnerHasName(ctx context.Context, owner id.PrincipalID) (bool, error) {
	_, err := s.names.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "owner lookup failed")
	}
	return true, nil
}

// Commit writes a validated record. The orchestrator has already checked
// uniqueness, but the store re-checks under its own lock because a ledger
// round-trip sits between that check and this write.
func (s *Service) Commit(ctx context.Context, record *models.NameRecord) error {
	if err := s.names.Commit(ctx, record); err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit name record")
	}

	s.logger.InfoContext(ctx, "name committed",
		"name", record.Name,
		"owner", record.Owner.String(),
		"season_id", record.SeasonID.String(),
	)
	return nil
}

// CountBySeason reports the live number of names claimed in a season. The
// season registry uses this for capacity; it must never be cached.
func (s *Service) CountBySeason(ctx context.Context, seasonID id.SeasonID) (uint32, error) {
	return s.names.CountBySeason(ctx, seasonID)
}

// Lookup returns the record for a name, or NotFound.
func (s *Service) Lookup(ctx context.Context, name string) (*models.NameRecord, error) {
	record, err := s.names.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "name %q is not registered", name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "name lookup failed")
	}
	return record, nil
}

// LookupByOwner returns the record an owner holds, or NotFound.
func (s *Service) LookupByOwner(ctx context.Context, owner id.PrincipalID) (*models.NameRecord, error) {
	record, err := s.names.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "owner holds no name")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "owner lookup failed")
	}
	return record, nil
}

// List returns every committed record, ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.NameRecord, error) {
	return s.names.List(ctx)
}

// TouchUpdated bumps a record's UpdatedAt when its associated content
// changes. The record itself stays immutable.
func (s *Service) TouchUpdated(ctx context.Context, name string) error {
	err := s.names.TouchUpdated(ctx, name, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "name %q is not registered", name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to touch name record")
	}
	return nil
}
