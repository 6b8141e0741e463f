package kv

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached is a read-through cache in front of another Store.
type Cached struct {
	inner Store
	cache *cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner. Entries expire after ttl.
func NewCached(inner Store, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *Cached) Get(ctx context.Context, key string) (string, error) {
	if v, found := c.cache.Get(key); found {
		return v.(string), nil
	}
	v, err := c.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, v, c.ttl)
	return v, nil
}

func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, value, c.ttl)
	return nil
}

func (c *Cached) Remove(ctx context.Context, key string) error {
	err := c.inner.Remove(ctx, key)
	c.cache.Delete(key)
	return err
}

// Atomic bypasses the cache inside the transaction and drops every cached
// entry once it commits.
func (c *Cached) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if err := c.inner.Atomic(ctx, fn); err != nil {
		return err
	}
	c.cache.Flush()
	return nil
}
