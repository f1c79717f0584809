package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLockClient SETNX y script de liberación en memoria; no requiere Redis.
type fakeLockClient struct {
	goredis.Scripter
	mu       sync.Mutex
	values   map[string]string
	acquired []string
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{values: map[string]string{}}
}

func (f *fakeLockClient) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.acquired = append(f.acquired, key)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeLockClient) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.values[keys[0]]; ok && v == args[0] {
		delete(f.values, keys[0])
		return goredis.NewCmdResult(int64(1), nil)
	}
	return goredis.NewCmdResult(int64(0), nil)
}

func (f *fakeLockClient) held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

func TestLocker_ClavesRepetidas(t *testing.T) {
	rdb := newFakeLockClient()
	locker := NewLocker(rdb, time.Second, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	release, err := locker.Lock(ctx, "farmer:1", "user:2", "user:2")
	require.NoError(t, err)
	assert.Equal(t, 2, rdb.held())

	release()
	assert.Equal(t, 0, rdb.held())
}

func TestLocker_AdquiereEnOrden(t *testing.T) {
	rdb := newFakeLockClient()
	locker := NewLocker(rdb, time.Second, nil, zerolog.Nop())

	release, err := locker.Lock(context.Background(), "user:3", "farmer:4", "user:2")
	require.NoError(t, err)
	release()

	assert.Equal(t, []string{"lock:farmer:4", "lock:user:2", "lock:user:3"}, rdb.acquired)
}

func TestLocker_OrdenesCruzadosNoSeBloquean(t *testing.T) {
	rdb := newFakeLockClient()
	locker := NewLocker(rdb, time.Second, nil, zerolog.Nop())
	orders := [][]string{
		{"farmer:1", "user:2", "user:3"},
		{"farmer:4", "user:3", "user:2"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for _, keys := range orders {
			wg.Add(1)
			go func(keys []string) {
				defer wg.Done()
				release, err := locker.Lock(ctx, keys...)
				if err != nil {
					errs <- err
					return
				}
				time.Sleep(time.Millisecond)
				release()
			}(keys)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, rdb.held())
}

func TestLocker_ContextoCanceladoLiberaLoTomado(t *testing.T) {
	rdb := newFakeLockClient()
	locker := NewLocker(rdb, time.Second, nil, zerolog.Nop())

	hold, err := locker.Lock(context.Background(), "user:2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "farmer:1", "user:2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, rdb.held())

	hold()
	assert.Equal(t, 0, rdb.held())
}
