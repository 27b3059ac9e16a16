package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ObiAU/techpulse/internal/config"
)

// Store is a string key/value cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Stats() map[string]interface{}
	Close() error
}

// New returns the store selected by cfg, or nil when caching is off.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		r, err := NewRedis(
			WithRedisAddr(cfg.RedisAddr),
			WithRedisPassword(cfg.RedisPassword),
			WithRedisDB(cfg.RedisDB),
		)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type entry struct {
	value    string
	storedAt time.Time
	expireAt time.Time
}

// Memory keeps entries in process memory and sweeps expired ones hourly.
type Memory struct {
	mu            sync.RWMutex
	entries       map[string]entry
	retention     time.Duration
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	closeOnce     sync.Once
}

func NewMemory(retention time.Duration) *Memory {
	c := &Memory{
		entries:   make(map[string]entry),
		retention: retention,
		stopChan:  make(chan struct{}),
	}

	c.cleanupTicker = time.NewTicker(1 * time.Hour)
	go c.cleanup()

	return c
}

func (c *Memory) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value; a non-positive ttl falls back to the store retention.
func (c *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.retention
	}

	now := time.Now()
	e := entry{value: value, storedAt: now}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

func (c *Memory) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup(time.Now())
		case <-c.stopChan:
			return
		}
	}
}

func (c *Memory) performCleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

func (c *Memory) Close() error {
	c.closeOnce.Do(func() {
		c.cleanupTicker.Stop()
		close(c.stopChan)
	})
	return nil
}

func (c *Memory) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"backend":   "memory",
		"entries":   len(c.entries),
		"retention": c.retention.String(),
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}
