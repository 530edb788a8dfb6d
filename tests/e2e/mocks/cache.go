package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrackingCache is an in-memory stand-in for the redis cache that counts
// calls. Values are stored as JSON, like the real cache.
type TrackingCache struct {
	mu          sync.Mutex
	GetCalls    int
	SetCalls    int
	DeleteCalls int
	data        map[string]CacheEntry
}

type CacheEntry struct {
	Value  []byte
	Expiry time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data: make(map[string]CacheEntry),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	if entry, exists := c.data[key]; exists && time.Now().Before(entry.Expiry) {
		return json.Unmarshal(entry.Value, dest)
	}
	return redis.Nil
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++
	c.data[key] = CacheEntry{
		Value:  b,
		Expiry: time.Now().Add(exp),
	}
	return nil
}

func (c *TrackingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeleteCalls++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *TrackingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeleteCalls++
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *TrackingCache) Close() error {
	return nil
}

// Sets returns SetCalls under the lock.
func (c *TrackingCache) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SetCalls
}
