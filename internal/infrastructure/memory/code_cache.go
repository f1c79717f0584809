package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
)

var _ ports.CodeCache = (*CodeCache)(nil)

// CodeCache caché de códigos con expiración perezosa (se purga al leer).
type CodeCache struct {
	mu      sync.Mutex
	entries map[string]codeEntry
	now     func() time.Time
}

type codeEntry struct {
	value     string
	expiresAt time.Time
}

// NewCodeCache construye la caché.
func NewCodeCache() *CodeCache {
	return &CodeCache{entries: map[string]codeEntry{}, now: time.Now}
}

func (c *CodeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set con ttl <= 0 guarda sin expiración.
func (c *CodeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := codeEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *CodeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
