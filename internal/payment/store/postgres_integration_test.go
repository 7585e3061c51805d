//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"namereg/internal/payment/models"
	"namereg/internal/payment/store"
	id "namereg/pkg/domain"
	"namereg/pkg/testutil/containers"
)

type PostgresPaymentStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *sql.DB
	store    *store.Postgres
}

func TestPostgresPaymentStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPaymentStoreSuite))
}

func (s *PostgresPaymentStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	db, err := sql.Open("postgres", s.postgres.DSN)
	s.Require().NoError(err)
	s.db = db

	s.store = store.NewPostgres(db)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresPaymentStoreSuite) TearDownSuite() {
	_ = s.db.Close()
	s.postgres.Pool.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresPaymentStoreSuite) SetupTest() {
	s.postgres.Exec(s.T(), "TRUNCATE consumed_refs, payments")
}

func (s *PostgresPaymentStoreSuite) TestConsumeIfUnused() {
	ctx := context.Background()
	ref := id.BlockRef(42)

	won, err := s.store.ConsumeIfUnused(ctx, ref)
	s.Require().NoError(err)
	s.True(won)

	won, err = s.store.ConsumeIfUnused(ctx, ref)
	s.Require().NoError(err)
	s.False(won, "a consumed reference must stay consumed")

	used, err := s.store.IsUsed(ctx, ref)
	s.Require().NoError(err)
	s.True(used)
}

func (s *PostgresPaymentStoreSuite) TestPaymentHistoryRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	payment := models.NewVerifiedPayment("alice", 100, 7, "abc", now)
	s.Require().NoError(s.store.Record(ctx, payment))

	payments, err := s.store.ListByPayer(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(payment.ID, payments[0].ID)
	s.Equal(uint64(100), payments[0].Amount)
	s.Equal(id.BlockRef(7), payments[0].BlockRef)
	s.Equal("abc", payments[0].RegisteredName)

	none, err := s.store.ListByPayer(ctx, "bob")
	s.Require().NoError(err)
	s.Empty(none)
}
