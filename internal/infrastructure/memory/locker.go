package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
)

var _ ports.Locker = (*KeyedLocker)(nil)

// KeyedLocker mutex por clave dentro del proceso (LOCK_BACKEND=memory).
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocker construye el locker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: map[string]*keyLock{}}
}

// Lock adquiere las claves en orden; si ctx termina a mitad libera las ya tomadas.
func (l *KeyedLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = ports.SortKeys(keys)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		kl := l.ref(k)
		select {
		case kl.sem <- struct{}{}:
			held = append(held, k)
		case <-ctx.Done():
			l.unref(k)
			l.release(held)
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *KeyedLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *KeyedLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyedLocker) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		kl := l.locks[keys[i]]
		l.mu.Unlock()
		<-kl.sem
		l.unref(keys[i])
	}
}
