package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-sadl-decoder/blockcrypt"
	"go-sadl-decoder/redis"

	goredis "github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("no cached result")

// Should be safe to use in concurrency
type ResultCache interface {
	// Get returns the cached response for key, or ErrCacheMiss.
	Get(key string) ([]byte, error)

	// Put stores a response. An existing entry is overwritten.
	Put(key string, value []byte) error
}

const DefaultCacheTTL time.Duration = 24 * time.Hour

// CacheKey identifies a payload by the SHA-256 of its cleaned hex and the
// requested version override, if any.
func CacheKey(payload, version string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(blockcrypt.CleanHex(payload)) + "|" + version))
	return hex.EncodeToString(sum[:])
}

// ------------------------------------------------------------------------------

type noResultCache struct{}

func (noResultCache) Get(string) ([]byte, error) { return nil, ErrCacheMiss }
func (noResultCache) Put(string, []byte) error   { return nil }

// ------------------------------------------------------------------------------

type cacheEntry struct {
	value   []byte
	expires time.Time
}

type InMemoryResultCache struct {
	entries   map[string]cacheEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	mutex     sync.Mutex
}

func NewInMemoryResultCache(ttl time.Duration) *InMemoryResultCache {
	return &InMemoryResultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryResultCache) Get(key string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

func (c *InMemoryResultCache) Put(key string, value []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	// at most one sweep per ttl, so expired keys that are never read again
	// do not pile up
	if now.Sub(c.lastSweep) >= c.ttl {
		for k, entry := range c.entries {
			if !now.Before(entry.expires) {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}

	c.entries[key] = cacheEntry{
		value:   append([]byte(nil), value...),
		expires: now.Add(c.ttl),
	}
	return nil
}

// ------------------------------------------------------------------------------

type RedisResultCache struct {
	client    *goredis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisResultCache(client *goredis.Client, namespace string, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, namespace: namespace, ttl: ttl}
}

func (c *RedisResultCache) Get(key string) ([]byte, error) {
	ctx := context.Background()
	value, err := c.client.Get(ctx, redis.Key(c.namespace, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}
	return value, nil
}

func (c *RedisResultCache) Put(key string, value []byte) error {
	ctx := context.Background()
	return c.client.Set(ctx, redis.Key(c.namespace, key), value, c.ttl).Err()
}
