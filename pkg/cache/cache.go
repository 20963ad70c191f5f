// Package cache stores synthesized audio so repeated playback of the same
// message does not hit the TTS provider again.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the backend interface for the audio cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// item represents a cached item with expiration
type item struct {
	value      []byte
	expiration int64
}

// expired checks if the cache item has expired
func (i item) expired() bool {
	if i.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > i.expiration
}

// Memory is a thread-safe in-memory cache with expiration.
type Memory struct {
	items             map[string]item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	maxItems          int
}

// NewMemory creates an in-memory cache. A cleanupInterval > 0 starts a
// background purge of expired entries.
func NewMemory(defaultExpiration, cleanupInterval time.Duration, maxItems int) *Memory {
	cache := &Memory{
		items:             make(map[string]item),
		defaultExpiration: defaultExpiration,
		maxItems:          maxItems,
	}

	if cleanupInterval > 0 {
		go cache.startCleanupTimer(cleanupInterval)
	}

	return cache
}

// Set adds an item to the cache with the default expiration
func (c *Memory) Set(_ context.Context, key string, value []byte) {
	var exp int64
	if c.defaultExpiration > 0 {
		exp = time.Now().Add(c.defaultExpiration).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict before inserting a new key at capacity
	if c.maxItems > 0 && len(c.items) >= c.maxItems {
		if _, exists := c.items[key]; !exists {
			c.evictOldest()
		}
	}

	c.items[key] = item{value: value, expiration: exp}
}

// Get retrieves an item from the cache
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.items[key]
	if !found || entry.expired() {
		return nil, false
	}

	return entry.value, true
}

// Count returns the number of items in the cache (including expired items)
func (c *Memory) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// startCleanupTimer starts the cleanup ticker
func (c *Memory) startCleanupTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.deleteExpired()
	}
}

// deleteExpired deletes all expired items from the cache
func (c *Memory) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.expiration > 0 && now > v.expiration {
			delete(c.items, k)
		}
	}
}

// evictOldest removes the entry closest to expiry. Caller must hold the lock.
func (c *Memory) evictOldest() {
	var oldestKey string
	var oldestTime int64

	firstRun := true
	for k, v := range c.items {
		if firstRun || v.expiration < oldestTime {
			oldestKey = k
			oldestTime = v.expiration
			firstRun = false
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
