package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"restobar-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "restobar:cart:"

// Storage persists a cart snapshot under an owner key.
type Storage interface {
	Load(ctx context.Context, owner string) ([]Item, error)
	Save(ctx context.Context, owner string, items []Item) error
	Delete(ctx context.Context, owner string) error
}

type RedisStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStorage(rdb *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, ttl: ttl}
}

func (s *RedisStorage) key(owner string) string {
	return keyPrefix + owner
}

// Load returns an empty cart for a missing or unreadable snapshot.
func (s *RedisStorage) Load(ctx context.Context, owner string) ([]Item, error) {
	data, err := s.rdb.Get(ctx, s.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.FromCtx(ctx).Warn("discarding unreadable cart snapshot",
			zap.String("layer", "storage"),
			zap.String("owner", owner),
			zap.Error(err),
		)
		return nil, nil
	}

	valid := items[:0]
	for _, it := range items {
		if it.Quantity > 0 {
			valid = append(valid, it)
		}
	}
	return valid, nil
}

func (s *RedisStorage) Save(ctx context.Context, owner string, items []Item) error {
	if len(items) == 0 {
		return s.Delete(ctx, owner)
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(owner), payload, s.ttl).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, owner string) error {
	return s.rdb.Del(ctx, s.key(owner)).Err()
}
