package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/rbac/models"
	"namereg/internal/rbac/store"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

type RoleServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
}

func TestRoleServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleServiceSuite))
}

func (s *RoleServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RoleServiceSuite) bootstrapAdmin(ctx context.Context, principal id.PrincipalID) {
	_, err := s.service.Bootstrap(ctx, principal)
	s.Require().NoError(err)
}

// =============================================================================
// Role Resolution
// =============================================================================

func (s *RoleServiceSuite) TestRoleOf() {
	ctx := context.Background()

	s.Run("unknown principals default to guest", func() {
		s.Equal(models.RoleGuest, s.service.RoleOf(ctx, "stranger"))
	})

	s.Run("anonymous callers are always guests", func() {
		s.Equal(models.RoleGuest, s.service.RoleOf(ctx, id.Anonymous))
	})

	s.Run("assigned roles resolve", func() {
		s.bootstrapAdmin(ctx, "root")
		s.Equal(models.RoleAdmin, s.service.RoleOf(ctx, "root"))
	})
}

func (s *RoleServiceSuite) TestHasPermission() {
	ctx := context.Background()
	s.bootstrapAdmin(ctx, "root")
	_, err := s.service.Assign(ctx, "root", "alice", models.RoleUser)
	s.Require().NoError(err)

	s.Run("admin satisfies every requirement", func() {
		s.True(s.service.HasPermission(ctx, "root", models.RoleAdmin))
		s.True(s.service.HasPermission(ctx, "root", models.RoleUser))
		s.True(s.service.HasPermission(ctx, "root", models.RoleGuest))
	})

	s.Run("user satisfies user and guest", func() {
		s.False(s.service.HasPermission(ctx, "alice", models.RoleAdmin))
		s.True(s.service.HasPermission(ctx, "alice", models.RoleUser))
		s.True(s.service.HasPermission(ctx, "alice", models.RoleGuest))
	})

	s.Run("guest satisfies only guest", func() {
		s.False(s.service.HasPermission(ctx, "stranger", models.RoleUser))
		s.True(s.service.HasPermission(ctx, "stranger", models.RoleGuest))
	})
}

// =============================================================================
// Bootstrap
// =============================================================================

func (s *RoleServiceSuite) TestBootstrap() {
	ctx := context.Background()

	s.Run("first caller becomes admin", func() {
		assignment, err := s.service.Bootstrap(ctx, "root")
		s.NoError(err)
		s.Equal(models.RoleAdmin, assignment.Role)
	})

	s.Run("succeeds exactly once", func() {
		_, err := s.service.Bootstrap(ctx, "usurper")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("anonymous callers cannot bootstrap", func() {
		fresh := New(store.NewInMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := fresh.Bootstrap(ctx, id.Anonymous)
		s.Error(err)
	})
}

// =============================================================================
// Assignment
// =============================================================================

func (s *RoleServiceSuite) TestAssign() {
	ctx := context.Background()
	s.bootstrapAdmin(ctx, "root")

	s.Run("admin can promote", func() {
		assignment, err := s.service.Assign(ctx, "root", "alice", models.RoleUser)
		s.NoError(err)
		s.Equal(models.RoleUser, assignment.Role)
	})

	s.Run("non-admin callers are rejected", func() {
		_, err := s.service.Assign(ctx, "alice", "bob", models.RoleUser)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("anonymous targets are rejected", func() {
		_, err := s.service.Assign(ctx, "root", id.Anonymous, models.RoleUser)
		s.Error(err)
	})
}

func (s *RoleServiceSuite) TestLastAdminGuard() {
	ctx := context.Background()
	s.bootstrapAdmin(ctx, "root")

	s.Run("sole admin cannot be demoted", func() {
		_, err := s.service.Assign(ctx, "root", "root", models.RoleUser)
		s.True(dErrors.HasCode(err, dErrors.CodeLastAdmin))
		s.Equal(models.RoleAdmin, s.service.RoleOf(ctx, "root"))
	})

	s.Run("demotion is allowed once another admin exists", func() {
		_, err := s.service.Assign(ctx, "root", "second", models.RoleAdmin)
		s.Require().NoError(err)

		_, err = s.service.Assign(ctx, "second", "root", models.RoleUser)
		s.NoError(err)
		s.Equal(models.RoleUser, s.service.RoleOf(ctx, "root"))
	})

	s.Run("the remaining admin is protected again", func() {
		_, err := s.service.Assign(ctx, "second", "second", models.RoleGuest)
		s.True(dErrors.HasCode(err, dErrors.CodeLastAdmin))
	})
}
