// Package redis implementa la caché de códigos y el bloqueo distribuido sobre Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config conexión a Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient abre la conexión y comprueba que Redis responde.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping a redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
