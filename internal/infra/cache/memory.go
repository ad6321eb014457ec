package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache реализует domain.Cache внутри процесса для запуска без Redis.
type MemoryCache struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

// NewMemory создаёт кэш в памяти.
func NewMemory() *MemoryCache {
	return &MemoryCache{keys: make(map[string]time.Time), now: time.Now}
}

// Once выполняет функцию, если ключ не занят или его TTL истёк.
func (c *MemoryCache) Once(_ context.Context, key string, ttl time.Duration, fn func() error) (bool, error) {
	now := c.now()
	c.mu.Lock()
	if exp, ok := c.keys[key]; ok && now.Before(exp) {
		c.mu.Unlock()
		return false, nil
	}
	c.keys[key] = now.Add(ttl)
	for k, exp := range c.keys {
		if !now.Before(exp) {
			delete(c.keys, k)
		}
	}
	c.mu.Unlock()

	if err := fn(); err != nil {
		c.mu.Lock()
		delete(c.keys, key)
		c.mu.Unlock()
		return true, err
	}
	return true, nil
}
