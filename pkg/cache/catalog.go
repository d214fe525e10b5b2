// Package cache keeps the composer's dropdown lists (customers, movies) in
// Redis so that every new draft does not hit the SCV API.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Catalog struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

type Option func(*Catalog)

func WithPrefix(prefix string) Option {
	return func(c *Catalog) { c.prefix = strings.Trim(prefix, ":") }
}

func WithTTL(d time.Duration) Option {
	return func(c *Catalog) { c.ttl = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

func NewCatalog(rdb *redis.Client, opts ...Option) *Catalog {
	c := &Catalog{
		rdb:    rdb,
		prefix: "scv:catalog",
		ttl:    time.Minute,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) key(name string) string {
	return c.prefix + ":" + name
}

// Fetch returns the cached value under name, or calls load and caches its
// result. Redis failures are logged and never fail the call. A nil catalog
// always calls load.
func Fetch[T any](ctx context.Context, c *Catalog, name string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}

	key := c.key(name)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// Invalidate drops the cached entries under names.
func (c *Catalog) Invalidate(ctx context.Context, names ...string) error {
	if c == nil || c.rdb == nil || len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = c.key(n)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
