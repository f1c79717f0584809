package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/memory"
	"github.com/jhoicas/agromarket-api/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{Store: config.StoreConfig{
		DataBackend:  config.BackendMemory,
		LockBackend:  config.BackendMemory,
		CacheBackend: config.BackendMemory,
	}}
}

func TestOpen_Memoria(t *testing.T) {
	b, err := Open(context.Background(), memoryConfig(), nil, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Ping)
	assert.IsType(t, &memory.KeyedLocker{}, b.Locker)
	assert.IsType(t, &memory.CodeCache{}, b.Codes)

	ctx := context.Background()
	err = b.Tx.Run(ctx, func(r repository.Repos) error {
		return r.Users.Create(ctx, &entity.User{Phone: "13800000001"})
	})
	require.NoError(t, err)
	u, err := b.Repos.Users.GetByPhone(ctx, "13800000001")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestOpen_Hasura(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.DataBackend = config.BackendHasura
	cfg.Hasura.Endpoint = "http://127.0.0.1:1/v1/graphql"

	b, err := Open(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.Ping)
	assert.Error(t, b.Ping(context.Background()))
}

func TestOpen_BackendDesconocido(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.DataBackend = "sqlite"

	b, err := Open(context.Background(), cfg, nil, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, b)
}
