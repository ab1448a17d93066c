package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"memorial/internal/domain/models"
	"memorial/internal/storage"
	redisapp "memorial/internal/storage/redis"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const slideshowKeyPrefix = "slideshow_config:"

func slideshowKey(userID string) string {
	return slideshowKeyPrefix + storage.SanitizeUserID(userID)
}

type RedisSlideshowCache struct {
	Client *redisapp.Client
	TTL    time.Duration
}

func NewRedisSlideshowCache(client *redisapp.Client, ttl time.Duration) *RedisSlideshowCache {
	return &RedisSlideshowCache{Client: client, TTL: ttl}
}

func (r *RedisSlideshowCache) Save(ctx context.Context, userID string, cached models.CachedSlideshow) error {
	const op = "repository.RedisSlideshowCache.Save"

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.Client.Set(ctx, slideshowKey(userID), string(data), r.TTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisSlideshowCache) Load(ctx context.Context, userID string) (models.CachedSlideshow, error) {
	const op = "repository.RedisSlideshowCache.Load"

	val, err := r.Client.Get(ctx, slideshowKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.CachedSlideshow{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return models.CachedSlideshow{}, fmt.Errorf("%s: %w", op, err)
	}

	cached, err := models.ParseSlideshowCache([]byte(val))
	if err != nil {
		return models.CachedSlideshow{}, fmt.Errorf("%s: %w", op, err)
	}

	return cached, nil
}

func (r *RedisSlideshowCache) Invalidate(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, slideshowKey(userID)).Err()
}

// MemorySlideshowCache - кэш в памяти процесса для режима без redis
type MemorySlideshowCache struct {
	c *cache.Cache
}

func NewMemorySlideshowCache(ttl, cleanup time.Duration) *MemorySlideshowCache {
	return &MemorySlideshowCache{c: cache.New(ttl, cleanup)}
}

func (m *MemorySlideshowCache) Save(ctx context.Context, userID string, cached models.CachedSlideshow) error {
	const op = "repository.MemorySlideshowCache.Save"

	// Храним сериализованный документ, чтобы чтение шло через тот же парсер
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.c.SetDefault(slideshowKey(userID), data)
	return nil
}

func (m *MemorySlideshowCache) Load(ctx context.Context, userID string) (models.CachedSlideshow, error) {
	const op = "repository.MemorySlideshowCache.Load"

	val, ok := m.c.Get(slideshowKey(userID))
	if !ok {
		return models.CachedSlideshow{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	data, _ := val.([]byte)
	cached, err := models.ParseSlideshowCache(data)
	if err != nil {
		return models.CachedSlideshow{}, fmt.Errorf("%s: %w", op, err)
	}

	return cached, nil
}

func (m *MemorySlideshowCache) Invalidate(ctx context.Context, userID string) error {
	m.c.Delete(slideshowKey(userID))
	return nil
}
