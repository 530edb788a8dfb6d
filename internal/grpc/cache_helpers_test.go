package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// memCache stores JSON like the redis cache does, so entries round-trip the
// same way.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) Close() error { return nil }

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func TestAddTTLJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), addTTLJitter(0))
	assert.Equal(t, time.Nanosecond, addTTLJitter(time.Nanosecond))

	ttl := time.Minute
	for range 100 {
		got := addTTLJitter(ttl)
		assert.GreaterOrEqual(t, got, 54*time.Second)
		assert.Less(t, got, 66*time.Second)
	}
}

func TestRefreshDue(t *testing.T) {
	now := time.Now()

	assert.False(t, refreshDue(now.Add(-10*time.Second), time.Minute, now))
	assert.True(t, refreshDue(now.Add(-30*time.Second), time.Minute, now))
	assert.False(t, refreshDue(now.Add(-time.Hour), 0, now))
}

func TestFindAndCache_MissPopulates(t *testing.T) {
	cache := newMemCache()
	var sf singleflight.Group

	v, err := FindAndCache(context.Background(), cache, &sf, "k", time.Minute, zap.NewNop(), func(ctx context.Context) (int, error) {
		return 7, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Eventually(t, func() bool { return cache.has("k") }, time.Second, 5*time.Millisecond)
}

func TestFindAndCache_StaleHitRefreshesInBackground(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), "k",
		cacheEntry[int]{Value: 1, StoredAt: time.Now().Add(-time.Hour)}, time.Minute))

	var sf singleflight.Group
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 2, nil
	}

	v, err := FindAndCache(context.Background(), cache, &sf, "k", time.Minute, zap.NewNop(), fetch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	assert.Eventually(t, func() bool {
		var e cacheEntry[int]
		return cache.Get(context.Background(), "k", &e) == nil && e.Value == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFindAndCache_FetchError(t *testing.T) {
	cache := newMemCache()
	var sf singleflight.Group
	wantErr := errors.New("upstream down")

	_, err := FindAndCache(context.Background(), cache, &sf, "k", time.Minute, nil, func(ctx context.Context) (int, error) {
		return 0, wantErr
	}, nil)

	assert.ErrorIs(t, err, wantErr)
	assert.False(t, cache.has("k"))
}

func TestFindAndCache_NilCacher(t *testing.T) {
	var sf singleflight.Group

	v, err := FindAndCache[string](context.Background(), nil, &sf, "k", time.Minute, zap.NewNop(), func(ctx context.Context) (string, error) {
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFindAndCache_ConcurrentMissesShareFetch(t *testing.T) {
	var sf singleflight.Group
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 9, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := FindAndCache(context.Background(), nil, &sf, "k", time.Minute, zap.NewNop(), fetch, nil)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 9, v)
	}
}

func TestFindAndCache_KeepRejectsValue(t *testing.T) {
	cache := newMemCache()
	var sf singleflight.Group
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return -1, nil
	}
	positive := func(v int) bool { return v > 0 }

	for range 2 {
		v, err := FindAndCache(context.Background(), cache, &sf, "k", time.Minute, zap.NewNop(), fetch, positive)
		require.NoError(t, err)
		assert.Equal(t, -1, v)
	}

	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, cache.has("k"))
}

func TestFindAndCache_FetchIgnoresCallerCancellation(t *testing.T) {
	cache := newMemCache()
	var sf singleflight.Group
	fetch := func(ctx context.Context) (int, error) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 5, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindAndCache(ctx, cache, &sf, "k", time.Minute, zap.NewNop(), fetch, nil)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Eventually(t, func() bool { return cache.has("k") }, time.Second, 5*time.Millisecond)

	v, err := FindAndCache(context.Background(), cache, &sf, "k", time.Minute, zap.NewNop(), fetch, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
