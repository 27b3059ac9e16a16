package ai

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/ObiAU/techpulse/internal/cache"
	"github.com/ObiAU/techpulse/internal/logger"
)

// CachedOracle remembers successful answers so repeated runs over the same
// items (a market question, a product) do not pay for the call again.
// Failures are never cached.
type CachedOracle struct {
	next  Oracle
	store cache.Store
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedOracle(next Oracle, store cache.Store, ttl time.Duration, log *logger.Logger) *CachedOracle {
	return &CachedOracle{next: next, store: store, ttl: ttl, log: log}
}

func (c *CachedOracle) Classify(ctx context.Context, instruction, payload string) (*Result, error) {
	key := cacheKey(instruction, payload)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("oracle cache read failed", logger.Error(err))
	} else if ok {
		if res, err := ParseResult(raw); err == nil {
			return res, nil
		}
	}

	res, err := c.next.Classify(ctx, instruction, payload)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, res.Raw(), c.ttl); err != nil {
		c.log.Warn("oracle cache write failed", logger.Error(err))
	}
	return res, nil
}

func cacheKey(instruction, payload string) string {
	hash := sha256.Sum256([]byte(instruction + "\x00" + payload))
	return fmt.Sprintf("oracle:%x", hash)
}
