//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namereg/internal/names/models"
	"namereg/internal/names/store"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/testutil/containers"
)

type PostgresNameStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresNameStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNameStoreSuite))
}

func (s *PostgresNameStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresNameStoreSuite) TearDownSuite() {
	s.postgres.Pool.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresNameStoreSuite) SetupTest() {
	s.postgres.Exec(s.T(), "TRUNCATE names")
}

func (s *PostgresNameStoreSuite) record(name string, owner id.PrincipalID) *models.NameRecord {
	record, err := models.NewNameRecord(name, "addr-"+name, models.AddressTypeIdentity, owner, 1, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return record
}

func (s *PostgresNameStoreSuite) TestCommitEnforcesUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Commit(ctx, s.record("alpha", "alice")))

	s.Run("duplicate name maps to NameTaken", func() {
		err := s.store.Commit(ctx, s.record("alpha", "bob"))
		s.True(dErrors.HasCode(err, dErrors.CodeNameTaken))
	})

	s.Run("second name per owner maps to AlreadyRegistered", func() {
		err := s.store.Commit(ctx, s.record("beta", "alice"))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	})
}

func (s *PostgresNameStoreSuite) TestLookupsAndCount() {
	ctx := context.Background()
	s.Require().NoError(s.store.Commit(ctx, s.record("alpha", "alice")))
	s.Require().NoError(s.store.Commit(ctx, s.record("beta", "bob")))

	byName, err := s.store.FindByName(ctx, "alpha")
	s.Require().NoError(err)
	s.Equal(id.PrincipalID("alice"), byName.Owner)

	byOwner, err := s.store.FindByOwner(ctx, "bob")
	s.Require().NoError(err)
	s.Equal("beta", byOwner.Name)

	count, err := s.store.CountBySeason(ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint32(2), count)

	_, err = s.store.FindByName(ctx, "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresNameStoreSuite) TestTouchUpdated() {
	ctx := context.Background()
	s.Require().NoError(s.store.Commit(ctx, s.record("alpha", "alice")))

	later := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	s.Require().NoError(s.store.TouchUpdated(ctx, "alpha", later))

	record, err := s.store.FindByName(ctx, "alpha")
	s.Require().NoError(err)
	s.WithinDuration(later, record.UpdatedAt, time.Millisecond)

	s.ErrorIs(s.store.TouchUpdated(ctx, "ghost", later), sentinel.ErrNotFound)
}
