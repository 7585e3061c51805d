package service

import (
	"context"
	"errors"
	"log/slog"

	"namereg/internal/content/models"
	namemodels "namereg/internal/names/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/requestcontext"
)

// ContentStore is a plain keyed store; it enforces nothing on its own.
type ContentStore interface {
	Get(ctx context.Context, name string, kind models.Kind) (*models.Entry, error)
	Put(ctx context.Context, entry *models.Entry) error
}

// NameLedger is the slice of the name service content writes depend on:
// ownership checks before a write, and the UpdatedAt touch after.
type NameLedger interface {
	Lookup(ctx context.Context, name string) (*namemodels.NameRecord, error)
	TouchUpdated(ctx context.Context, name string) error
}

// Service stores content attached to registered names. Only the name's
// owner may write; reads are open.
type Service struct {
	content ContentStore
	names   NameLedger
	logger  *slog.Logger
}

func New(content ContentStore, names NameLedger, logger *slog.Logger) *Service {
	return &Service{content: content, names: names, logger: logger}
}

// Get returns the content of one kind for a name, or NotFound.
func (s *Service) Get(ctx context.Context, name string, kind models.Kind) (*models.Entry, error) {
	entry, err := s.content.Get(ctx, name, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no %s content for %q", kind, name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "content lookup failed")
	}
	return entry, nil
}

// Put writes content for a name the caller owns, then touches the owning
// record's UpdatedAt.
func (s *Service) Put(ctx context.Context, caller id.PrincipalID, name string, kind models.Kind, body string) (*models.Entry, error) {
	record, err := s.names.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Owner != caller {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the name owner may write content")
	}

	entry := &models.Entry{
		Name:      name,
		Kind:      kind,
		Body:      body,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := s.content.Put(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store content")
	}
	if err := s.names.TouchUpdated(ctx, name); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "name content updated",
		"name", name,
		"kind", string(kind),
	)
	return entry, nil
}
