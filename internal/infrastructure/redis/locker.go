package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

var _ ports.Locker = (*Locker)(nil)

const (
	lockPrefix   = "lock:"
	defaultTTL   = 30 * time.Second
	minRetryWait = 10 * time.Millisecond
	maxRetryWait = 200 * time.Millisecond
)

// releaseScript borra la clave solo si sigue siendo nuestra.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// lockClient subconjunto de comandos que usa el bloqueo; *goredis.Client lo cumple.
type lockClient interface {
	goredis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// Locker bloqueo por sujeto compartido entre réplicas (SET NX PX con token).
// TTL acota cuánto sobrevive un bloqueo si el proceso muere sin liberarlo.
type Locker struct {
	rdb     lockClient
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewLocker construye el bloqueo. ttl <= 0 usa 30s; m puede ser nil.
func NewLocker(rdb lockClient, ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{rdb: rdb, ttl: ttl, metrics: m, log: log.With().Str("component", "redis_lock").Logger()}
}

// Lock adquiere keys en orden de ports.SortKeys, sin repetidas.
// Si ctx termina antes, libera las ya adquiridas y devuelve ctx.Err().
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = ports.SortKeys(keys)
	start := time.Now()
	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		// Se libera con un contexto propio: el del llamador puede estar cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(rctx, l.rdb, []string{lockPrefix + held[i]}, token).Err(); err != nil {
				l.log.Warn().Err(err).Str("key", held[i]).Msg("no se pudo liberar el bloqueo")
			}
		}
	}
	for _, key := range keys {
		if err := l.acquire(ctx, lockPrefix+key, token); err != nil {
			release()
			l.metrics.ObserveLock("redis", time.Since(start), err)
			return nil, err
		}
		held = append(held, key)
	}
	l.metrics.ObserveLock("redis", time.Since(start), nil)

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	wait := minRetryWait
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if wait *= 2; wait > maxRetryWait {
			wait = maxRetryWait
		}
	}
}
