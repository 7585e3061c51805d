package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namereg/internal/payment/models"
	id "namereg/pkg/domain"
)

type ConsumedSetSuite struct {
	suite.Suite
	store *InMemory
}

func TestConsumedSetSuite(t *testing.T) {
	suite.Run(t, new(ConsumedSetSuite))
}

func (s *ConsumedSetSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *ConsumedSetSuite) TestConsumeIfUnused() {
	ctx := context.Background()
	ref := id.BlockRef(42)

	s.Run("fresh reference is unused", func() {
		used, err := s.store.IsUsed(ctx, ref)
		s.NoError(err)
		s.False(used)
	})

	s.Run("first consume wins", func() {
		won, err := s.store.ConsumeIfUnused(ctx, ref)
		s.NoError(err)
		s.True(won)
	})

	s.Run("second consume loses", func() {
		won, err := s.store.ConsumeIfUnused(ctx, ref)
		s.NoError(err)
		s.False(won)

		used, err := s.store.IsUsed(ctx, ref)
		s.NoError(err)
		s.True(used)
	})
}

// The check and the mark must be one atomic operation: under concurrent
// invocation with the same reference, exactly one caller may win.
func (s *ConsumedSetSuite) TestConsumeIsAtomicUnderContention() {
	ctx := context.Background()
	ref := id.BlockRef(7)

	const callers = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			won, err := s.store.ConsumeIfUnused(ctx, ref)
			s.NoError(err)
			if won {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *ConsumedSetSuite) TestPaymentHistory() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := models.NewVerifiedPayment("alice", 100, 1, "alpha", now)
	second := models.NewVerifiedPayment("bob", 100, 2, "beta", now.Add(time.Minute))
	s.Require().NoError(s.store.Record(ctx, first))
	s.Require().NoError(s.store.Record(ctx, second))

	payments, err := s.store.ListByPayer(ctx, "alice")
	s.NoError(err)
	s.Len(payments, 1)
	s.Equal(first.ID, payments[0].ID)

	none, err := s.store.ListByPayer(ctx, "carol")
	s.NoError(err)
	s.Empty(none)
}
