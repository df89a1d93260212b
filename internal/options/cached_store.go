package options

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	phxlog "gcsmedia/backend/pkg/log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix   = "gcsmedia:option:"
	versionKeyPrefix = "gcsmedia:option-version:"
)

type cachedOption struct {
	Value string `json:"value"`
	OK    bool   `json:"ok"`
}

// CachedStore is a redis read-through cache in front of another Store.
// Absent options are cached too, so an unset bucket does not hit the
// database on every upload. Redis failures fall back to the inner store.
//
// Every write bumps a per-option version key. A read only populates the
// cache inside a WATCH on that key, so a write that lands between the
// database read and the cache fill drops the fill instead of caching the
// old value.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedStore caches inner in rdb. Entries expire after ttl.
func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CachedStore) Get(ctx context.Context, name string) (string, bool, error) {
	key := cacheKeyPrefix + name
	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var entry cachedOption
		if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
			return entry.Value, entry.OK, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		phxlog.L.Warn("Option cache unavailable, reading through", zap.String("option", name), zap.Error(err))
		return c.inner.Get(ctx, name)
	}

	var (
		value    string
		ok, read bool
		innerErr error
	)
	watchErr := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		value, ok, innerErr = c.inner.Get(ctx, name)
		read = true
		if innerErr != nil {
			return nil
		}
		b, err := json.Marshal(cachedOption{Value: value, OK: ok})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, versionKeyPrefix+name)
	if innerErr != nil {
		return "", false, innerErr
	}
	switch {
	case watchErr == nil:
	case errors.Is(watchErr, redis.TxFailedErr):
		phxlog.L.Debug("Option changed while caching, skipped fill", zap.String("option", name))
	default:
		phxlog.L.Debug("Failed to populate option cache", zap.String("option", name), zap.Error(watchErr))
	}
	if !read {
		return c.inner.Get(ctx, name)
	}
	return value, ok, nil
}

func (c *CachedStore) Add(ctx context.Context, name, value string) (bool, error) {
	added, err := c.inner.Add(ctx, name, value)
	c.invalidate(ctx, name)
	return added, err
}

func (c *CachedStore) Update(ctx context.Context, name, value string) error {
	err := c.inner.Update(ctx, name, value)
	c.invalidate(ctx, name)
	return err
}

func (c *CachedStore) Delete(ctx context.Context, name string) error {
	err := c.inner.Delete(ctx, name)
	c.invalidate(ctx, name)
	return err
}

func (c *CachedStore) invalidate(ctx context.Context, name string) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKeyPrefix+name)
		pipe.Del(ctx, cacheKeyPrefix+name)
		return nil
	})
	if err != nil {
		phxlog.L.Warn("Failed to invalidate cached option", zap.String("option", name), zap.Error(err))
	}
}
