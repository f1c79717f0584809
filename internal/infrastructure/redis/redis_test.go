package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pruebas de integración: requieren REDIS_ADDR (p. ej. localhost:6379).
func testClient(t *testing.T) *CodeCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR no definido")
	}
	rdb, err := NewClient(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCodeCache(rdb)
}

func TestCodeCache_SetGetDelete(t *testing.T) {
	cache := testClient(t)
	ctx := context.Background()
	key := "test_code_" + uuid.NewString()

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, "1234", time.Minute))
	v, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", v)

	require.NoError(t, cache.Delete(ctx, key))
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocker_ExclusiveUntilRelease(t *testing.T) {
	cache := testClient(t)
	locker := NewLocker(cache.rdb.(lockClient), time.Second, nil, zerolog.Nop())
	key := "user:" + uuid.NewString()

	release, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestLocker_NoKeys(t *testing.T) {
	cache := testClient(t)
	locker := NewLocker(cache.rdb.(lockClient), 0, nil, zerolog.Nop())

	release, err := locker.Lock(context.Background())
	require.NoError(t, err)
	release()
}
