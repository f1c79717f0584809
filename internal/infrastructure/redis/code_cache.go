package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
)

var _ ports.CodeCache = (*CodeCache)(nil)

// CodeCache guarda los códigos de verificación con TTL nativo de Redis.
type CodeCache struct {
	rdb goredis.Cmdable
}

// NewCodeCache construye la caché.
func NewCodeCache(rdb goredis.Cmdable) *CodeCache {
	return &CodeCache{rdb: rdb}
}

func (c *CodeCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set con ttl <= 0 guarda sin expiración.
func (c *CodeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *CodeCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
