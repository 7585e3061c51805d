package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "namereg/pkg/domain"
)

// consumedRefKeyPrefix namespaces consumed block references in Redis.
const consumedRefKeyPrefix = "payment:consumed:"

// RedisConsumedSet is a Redis-backed consumed-reference set for deployments
// where multiple instances share anti-replay state. SETNX gives the atomic
// check-and-mark; keys never expire because a reference stays consumed
// forever.
type RedisConsumedSet struct {
	client *redis.Client
}

func NewRedisConsumedSet(client *redis.Client) *RedisConsumedSet {
	return &RedisConsumedSet{client: client}
}

// IsUsed reports whether a block reference has already been consumed.
func (s *RedisConsumedSet) IsUsed(ctx context.Context, ref id.BlockRef) (bool, error) {
	_, err := s.client.Get(ctx, consumedRefKeyPrefix+ref.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check consumed reference: %w", err)
	}
	return true, nil
}

// ConsumeIfUnused marks ref consumed and reports whether this caller won.
func (s *RedisConsumedSet) ConsumeIfUnused(ctx context.Context, ref id.BlockRef) (bool, error) {
	won, err := s.client.SetNX(ctx, consumedRefKeyPrefix+ref.String(), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("consume reference: %w", err)
	}
	return won, nil
}
