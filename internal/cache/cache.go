// Package cache serves generated data with stale-while-revalidate semantics.
package cache

//go:generate mockgen -source=cache.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/metrics"
)

// ErrMiss is returned by a Store when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

type Entry struct {
	Key         string
	Body        []byte
	GeneratedAt time.Time
}

type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, keys ...string) error
	Purge(ctx context.Context) error
}

// GenerateFunc produces the body for a key.
type GenerateFunc func(ctx context.Context) ([]byte, error)

// Cache serves fresh entries directly, serves stale entries while
// regenerating them in the background, and generates missing entries
// synchronously. Generation errors are never cached.
type Cache struct {
	store   Store
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRegenerateTimeout bounds every generation, shared or in the background.
func WithRegenerateTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// New creates a cache over store.
func New(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		logger:  logger.With("component", "cache"),
		metrics: m,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body for key, generating it with gen when the entry is
// missing and scheduling a regeneration when it is older than ttl.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, gen GenerateFunc) ([]byte, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrMiss) {
		c.logger.Warn("cache store read failed", "key", key, "error", err)
	}

	if entry != nil {
		if c.now().Sub(entry.GeneratedAt) < ttl {
			c.metrics.CacheLookup("fresh")
			return entry.Body, nil
		}

		c.metrics.CacheLookup("stale")
		c.revalidate(ctx, key, gen)
		return entry.Body, nil
	}

	c.metrics.CacheLookup("miss")

	return c.do(ctx, key, func(genCtx context.Context) ([]byte, error) {
		return c.generate(genCtx, key, gen)
	})
}

// Refresh regenerates key synchronously regardless of its age.
func (c *Cache) Refresh(ctx context.Context, key string, gen GenerateFunc) error {
	_, err := c.do(ctx, key, func(genCtx context.Context) ([]byte, error) {
		body, err := c.generate(genCtx, key, gen)
		if errors.Is(err, domain.ErrNotFound) {
			c.drop(genCtx, key)
		}
		return body, err
	})
	return err
}

// do runs fn once for every concurrent caller of key. fn is detached from
// the callers' cancellation and bounded by the regeneration timeout; each
// caller stops waiting when its own ctx ends.
func (c *Cache) do(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		c.wg.Add(1)
		defer c.wg.Done()

		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		return fn(genCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate removes entries so the next Get regenerates them.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	c.logger.Debug("invalidated entries", "keys", keys)
	return nil
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if err := c.store.Purge(ctx); err != nil {
		return fmt.Errorf("purge entries: %w", err)
	}
	c.logger.Info("invalidated all entries")
	return nil
}

// Wait blocks until background regenerations finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) revalidate(ctx context.Context, key string, gen GenerateFunc) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		_, err, _ := c.group.Do(key, func() (any, error) {
			return c.generate(bgCtx, key, gen)
		})
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.drop(bgCtx, key)
		case err != nil:
			c.logger.Warn("background regeneration failed, serving stale entry", "key", key, "error", err)
		}
	}()
}

func (c *Cache) generate(ctx context.Context, key string, gen GenerateFunc) ([]byte, error) {
	body, err := gen(ctx)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Key: key, Body: body, GeneratedAt: c.now()}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("cache store write failed", "key", key, "error", err)
	}

	c.logger.Debug("generated entry", "key", key, "bytes", len(body))

	return body, nil
}

func (c *Cache) drop(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("failed to drop entry", "key", key, "error", err)
	}
}
