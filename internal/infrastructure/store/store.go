// Package store abre el backend de datos configurado (Hasura, PostgreSQL o memoria) y los
// backends de candados y códigos (Redis o memoria).
package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/hasura"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/memory"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/agromarket-api/internal/infrastructure/redis"
	"github.com/jhoicas/agromarket-api/pkg/config"
)

// Backend repositorios, transacciones y coordinación listos para los casos de uso.
type Backend struct {
	Repos  repository.Repos
	Tx     repository.TxRunner
	Locker ports.Locker
	Codes  ports.CodeCache

	// Ping comprueba el almacén de datos; nil si no hay nada que comprobar.
	Ping func(ctx context.Context) error

	closers []func()
}

// Close libera conexiones en orden inverso de apertura.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open construye el Backend según cfg.Store. En caso de error cierra lo ya abierto.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (b *Backend, err error) {
	b = &Backend{}
	defer func() {
		if err != nil {
			b.Close()
			b = nil
		}
	}()

	switch cfg.Store.DataBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return b, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.Repos = postgres.NewRepos(pool)
		b.Tx = postgres.NewTxRunner(pool, m)
		b.Ping = pool.Ping
	case config.BackendMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		b.Repos = mem.Repos()
		b.Tx = mem
	case config.BackendHasura:
		client := hasura.NewClient(hasura.Config{
			Endpoint:    cfg.Hasura.Endpoint,
			AdminSecret: cfg.Hasura.AdminSecret,
			Timeout:     cfg.Hasura.Timeout,
		}, m, log)
		b.Repos = hasura.NewRepos(client)
		b.Tx = hasura.NewTxRunner(b.Repos)
		b.Ping = client.Ping
	default:
		return b, fmt.Errorf("DATA_BACKEND desconocido: %q", cfg.Store.DataBackend)
	}

	var rdb *goredis.Client
	if cfg.Store.LockBackend == config.BackendRedis || cfg.Store.CacheBackend == config.BackendRedis {
		rdb, err = infraredis.NewClient(ctx, infraredis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return b, fmt.Errorf("conexión a Redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
	}

	if cfg.Store.LockBackend == config.BackendRedis {
		b.Locker = infraredis.NewLocker(rdb, cfg.Redis.LockTTL, m, log)
	} else {
		b.Locker = memory.NewKeyedLocker()
	}
	if cfg.Store.CacheBackend == config.BackendRedis {
		b.Codes = infraredis.NewCodeCache(rdb)
	} else {
		b.Codes = memory.NewCodeCache()
	}
	return b, nil
}
