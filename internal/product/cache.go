package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restobar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listKeyPrefix = "products:list:"

// CachedRepository serves public (active-only) listings from Redis and drops
// every cached listing on any write. Redis failures fall through to the database.
type CachedRepository struct {
	Repository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedRepository(repo Repository, rdb *redis.Client, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{Repository: repo, redis: rdb, ttl: ttl}
}

func listKey(opts ListOptions) string {
	return fmt.Sprintf("%s%t:%t:%s:%s", listKeyPrefix, opts.ActiveOnly, opts.FeaturedOnly, opts.Category, opts.OrderBy.Normalize())
}

func (c *CachedRepository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	if !opts.ActiveOnly {
		return c.Repository.List(ctx, opts)
	}
	opts.OrderBy = opts.OrderBy.Normalize()

	log := logger.FromCtx(ctx).With(zap.String("layer", "cache"), zap.String("method", "List"))
	key := listKey(opts)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		log.Warn("failed to unmarshal cached products, continuing with DB")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("redis error, continuing with DB", zap.Error(err))
	}

	products, err := c.Repository.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn("failed to cache products", zap.Error(err))
		}
	}
	return products, nil
}

func (c *CachedRepository) Upsert(ctx context.Context, p *Product) error {
	if err := c.Repository.Upsert(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := c.Repository.SetActive(ctx, id, active); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	if err := c.Repository.SetFeatured(ctx, id, featured); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRepository) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	if err := c.Repository.SetRating(ctx, id, rating); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRepository) invalidate(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, listKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.FromCtx(ctx).Warn("failed to scan product cache", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.FromCtx(ctx).Warn("failed to delete product cache", zap.Error(err))
	}
}
