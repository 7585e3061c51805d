package service

import (
	"context"
	"errors"
	"log/slog"

	"namereg/internal/rbac/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/requestcontext"
)

// RoleStore persists role assignments.
//
// Upsert runs validate and the write while holding the store's lock (mutex
// in memory, row locks in Postgres) so the last-admin guard cannot race: the
// admin count the callback observes is still true when the write lands.
type RoleStore interface {
	Find(ctx context.Context, principal id.PrincipalID) (models.Assignment, error)
	List(ctx context.Context) ([]models.Assignment, error)
	CountAdmins(ctx context.Context) (int, error)
	Upsert(ctx context.Context, assignment models.Assignment, validate func(current models.Role, adminCount int) error) (models.Assignment, error)
}

// Service enforces the access-control contract: role resolution that never
// fails, admin-gated assignment, and the one-shot bootstrap.
type Service struct {
	roles  RoleStore
	logger *slog.Logger
}

func New(roles RoleStore, logger *slog.Logger) *Service {
	return &Service{roles: roles, logger: logger}
}

// RoleOf resolves a caller to its role. It never fails: anonymous callers
// and principals without an assignment are guests.
func (s *Service) RoleOf(ctx context.Context, caller id.PrincipalID) models.Role {
	if caller.IsAnonymous() {
		return models.RoleGuest
	}
	assignment, err := s.roles.Find(ctx, caller)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			// Store failures degrade to guest rather than blocking reads.
			s.logger.ErrorContext(ctx, "role lookup failed, defaulting to guest",
				"principal", caller.String(),
				"error", err,
			)
		}
		return models.RoleGuest
	}
	return assignment.Role
}

// HasPermission reports whether the caller satisfies the required role.
func (s *Service) HasPermission(ctx context.Context, caller id.PrincipalID, required models.Role) bool {
	return s.RoleOf(ctx, caller).Satisfies(required)
}

// Require fails with Unauthorized unless the caller satisfies the required
// role. Mutating services call this first.
func (s *Service) Require(ctx context.Context, caller id.PrincipalID, required models.Role) error {
	if !s.HasPermission(ctx, caller, required) {
		return dErrors.Newf(dErrors.CodeUnauthorized, "requires %s role", required)
	}
	return nil
}

// RequireAdmin is the admin gate other modules depend on.
func (s *Service) RequireAdmin(ctx context.Context, caller id.PrincipalID) error {
	return s.Require(ctx, caller, models.RoleAdmin)
}

// RequireUser gates operations open to registered users.
func (s *Service) RequireUser(ctx context.Context, caller id.PrincipalID) error {
	return s.Require(ctx, caller, models.RoleUser)
}

// Bootstrap makes the caller the first admin. It succeeds exactly once for
// the lifetime of the store; any later call fails regardless of caller.
func (s *Service) Bootstrap(ctx context.Context, caller id.PrincipalID) (models.Assignment, error) {
	assignment, err := models.NewAssignment(caller, models.RoleAdmin, caller, requestcontext.Now(ctx))
	if err != nil {
		return models.Assignment{}, err
	}

	result, err := s.roles.Upsert(ctx, assignment, func(_ models.Role, adminCount int) error {
		if adminCount > 0 {
			return dErrors.New(dErrors.CodeConflict, "service already has an admin")
		}
		return nil
	})
	if err != nil {
		return models.Assignment{}, err
	}

	s.logger.InfoContext(ctx, "bootstrap admin assigned", "principal", caller.String())
	return result, nil
}

// Assign grants or changes a role. Only admins may call it, and the last
// remaining admin can never be demoted: allowing that would leave the
// service with no principal able to manage seasons or roles.
func (s *Service) Assign(ctx context.Context, caller, target id.PrincipalID, role models.Role) (models.Assignment, error) {
	if err := s.Require(ctx, caller, models.RoleAdmin); err != nil {
		return models.Assignment{}, err
	}

	assignment, err := models.NewAssignment(target, role, caller, requestcontext.Now(ctx))
	if err != nil {
		return models.Assignment{}, err
	}

	result, err := s.roles.Upsert(ctx, assignment, func(current models.Role, adminCount int) error {
		if current == models.RoleAdmin && role != models.RoleAdmin && adminCount <= 1 {
			return dErrors.New(dErrors.CodeLastAdmin, "cannot demote the last admin")
		}
		return nil
	})
	if err != nil {
		return models.Assignment{}, err
	}

	s.logger.InfoContext(ctx, "role assigned",
		"principal", target.String(),
		"role", string(role),
		"assigned_by", caller.String(),
	)
	return result, nil
}

// List returns every explicit assignment. Admin only.
func (s *Service) List(ctx context.Context, caller id.PrincipalID) ([]models.Assignment, error) {
	if err := s.Require(ctx, caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}
