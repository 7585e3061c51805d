//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/payment/store"
	id "namereg/pkg/domain"
	"namereg/pkg/testutil/containers"
)

type RedisConsumedSetSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisConsumedSet
}

func TestRedisConsumedSetSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisConsumedSetSuite))
}

func (s *RedisConsumedSetSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedisConsumedSet(s.redis.Client)
}

func (s *RedisConsumedSetSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(context.Background())
}

func (s *RedisConsumedSetSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisConsumedSetSuite) TestConsumeIfUnused() {
	ctx := context.Background()
	ref := id.BlockRef(42)

	used, err := s.store.IsUsed(ctx, ref)
	s.Require().NoError(err)
	s.False(used)

	won, err := s.store.ConsumeIfUnused(ctx, ref)
	s.Require().NoError(err)
	s.True(won)

	won, err = s.store.ConsumeIfUnused(ctx, ref)
	s.Require().NoError(err)
	s.False(won)

	used, err = s.store.IsUsed(ctx, ref)
	s.Require().NoError(err)
	s.True(used)
}

func (s *RedisConsumedSetSuite) TestConsumeIsAtomicAcrossClients() {
	ctx := context.Background()
	ref := id.BlockRef(7)

	const callers = 32
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
