package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"studiodesk/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCache serves from primary until it errors, then from fallback.
// Primary is retried once recoveryInterval has passed since the failure.
type FailoverCache struct {
	primary  domain.Cache
	fallback domain.Cache
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

var _ domain.Cache = (*FailoverCache)(nil)

func NewFailoverCache(primary, fallback domain.Cache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (c *FailoverCache) usePrimary() bool {
	if !c.isDown.Load() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(c.lastCheck) > recoveryInterval {
		c.lastCheck = c.now()
		return true
	}
	return false
}

func (c *FailoverCache) observe(err error) {
	if err == nil {
		if c.isDown.CompareAndSwap(true, false) {
			c.logger.Info().Msg("primary cache recovered")
		}
		return
	}
	if !c.isDown.Load() {
		c.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	}
	c.mu.Lock()
	c.lastCheck = c.now()
	c.mu.Unlock()
	c.isDown.Store(true)
}

func (c *FailoverCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.usePrimary() {
		val, ok, err := c.primary.Get(ctx, key)
		c.observe(err)
		if err == nil {
			return val, ok, nil
		}
	}
	return c.fallback.Get(ctx, key)
}

func (c *FailoverCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.usePrimary() {
		err := c.primary.Set(ctx, key, value, ttl)
		c.observe(err)
		if err == nil {
			return nil
		}
	}
	return c.fallback.Set(ctx, key, value, ttl)
}

func (c *FailoverCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if c.usePrimary() {
		ok, err := c.primary.SetIfAbsent(ctx, key, value, ttl)
		c.observe(err)
		if err == nil {
			return ok, nil
		}
	}
	return c.fallback.SetIfAbsent(ctx, key, value, ttl)
}

func (c *FailoverCache) Delete(ctx context.Context, key string) error {
	// Delete from both so a recovered primary doesn't serve stale data.
	fbErr := c.fallback.Delete(ctx, key)
	if c.usePrimary() {
		err := c.primary.Delete(ctx, key)
		c.observe(err)
		if err == nil {
			return nil
		}
	}
	return fbErr
}
