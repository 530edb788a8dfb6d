package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

// KeepFunc reports whether a fetched value may be cached. A nil KeepFunc
// caches everything.
type KeepFunc[T any] func(T) bool

const (
	defaultFetchTimeout = 30 * time.Second
	defaultSetTimeout   = 5 * time.Second
)

// cacheEntry wraps a cached value with the time it was stored so that hits can
// decide whether a refresh-ahead is due.
type cacheEntry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// addTTLJitter spreads expirations by up to ±10% of ttl.
func addTTLJitter(ttl time.Duration) time.Duration {
	spread := int64(ttl / 5)
	if ttl <= 0 || spread <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(spread)-spread/2)
}

// refreshDue reports whether an entry has used up half its TTL.
func refreshDue(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(storedAt) >= ttl/2
}

func cacheable[T any](keep KeepFunc[T], value T) bool {
	return keep == nil || keep(value)
}

func storeEntry[T any](c Cacher, key string, ttl time.Duration, logger *zap.Logger, value T) {
	setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttlWithJitter := addTTLJitter(ttl)
	entry := cacheEntry[T]{Value: value, StoredAt: time.Now()}
	if err := c.Set(setCtx, key, entry, ttlWithJitter); err != nil {
		logger.Warn("failed to set cache", zap.String("key", key), zap.Error(err))
		return
	}
	logger.Debug("cache populated", zap.String("key", key), zap.Duration("ttl", ttlWithJitter))
}

func triggerBackgroundRefresh[T any](
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
	keep KeepFunc[T],
) {
	go func() {
		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				logger.Warn("background refresh failed",
					zap.String("key", key),
					zap.Error(err))
				return nil, err
			}
			if ctx.Err() != nil || !cacheable(keep, value) {
				logger.Debug("background refresh result not cached", zap.String("key", key))
				return value, nil
			}

			storeEntry(c, key, ttl, logger, value)
			return value, nil
		})
	}()
}

// FindAndCache implements read-through caching with singleflight and
// refresh-ahead. A hit older than half the TTL is served and refreshed in the
// background. A nil Cacher degrades to singleflight alone.
//
// The shared fetch is detached from the caller's cancellation and bounded by
// defaultFetchTimeout, so one caller giving up cannot spoil the result for
// the others. Values rejected by keep, or produced after the fetch timed out,
// are returned but not cached. A caller whose ctx is done gets ctx.Err().
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
	keep KeepFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	if c != nil {
		var cached cacheEntry[T]
		err := c.Get(ctx, key, &cached)
		switch {
		case err == nil:
			logger.Debug("cache hit", zap.String("key", key))
			if refreshDue(cached.StoredAt, ttl, time.Now()) {
				triggerBackgroundRefresh(c, sf, key, ttl, logger, fn, keep)
			}
			return cached.Value, nil

		case errors.Is(err, redis.Nil):
			logger.Debug("cache miss", zap.String("key", key))

		default:
			logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		}
	}

	ch := sf.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFetchTimeout)
		defer cancel()

		value, err := fn(fetchCtx)
		if err != nil {
			logger.Error("fetch failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		switch {
		case c == nil:
		case fetchCtx.Err() != nil || !cacheable(keep, value):
			logger.Debug("fetch result not cached", zap.String("key", key))
		default:
			go storeEntry(c, key, ttl, logger, value)
		}
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
	case res = <-ch:
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if res.Err != nil {
		return zero, res.Err
	}
	v, shared := res.Val, res.Shared

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
