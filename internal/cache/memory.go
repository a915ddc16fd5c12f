package cache

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrFull is returned by MemoryCache.Set when the entry cap is reached and
// no expired entries can be dropped
var ErrFull = errors.New("memory cache full")

// MemoryCache is an in-process expiring cache with an entry cap
type MemoryCache struct {
	items      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a memory cache. maxEntries <= 0 means unbounded.
// Expired entries are swept every defaultTTL, at most once a minute.
func NewMemoryCache(defaultTTL time.Duration, maxEntries int) *MemoryCache {
	sweep := defaultTTL
	if sweep < time.Minute {
		sweep = time.Minute
	}
	return &MemoryCache{
		items:      gocache.New(defaultTTL, sweep),
		maxEntries: maxEntries,
	}
}

// Get returns a live entry
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

// Set stores a value; a zero ttl uses the cache default. Replacing an
// existing key never counts against the cap.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if c.maxEntries > 0 && c.items.ItemCount() >= c.maxEntries {
		if _, exists := c.items.Get(key); !exists {
			c.items.DeleteExpired()
			if c.items.ItemCount() >= c.maxEntries {
				return ErrFull
			}
		}
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len returns the number of entries, expired ones included until the sweep
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
