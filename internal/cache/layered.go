package cache

import (
	"errors"
	"time"

	"github.com/ppiankov/geoscore/internal/metrics"
)

// LayeredCache checks memory first and falls back to disk. Without a disk
// directory it is memory only. Lookups are counted per kind and layer.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a layered cache
func NewLayeredCache(memoryTTL time.Duration, maxEntries int, diskDir string, diskTTL time.Duration) *LayeredCache {
	c := &LayeredCache{
		memory: NewMemoryCache(memoryTTL, maxEntries),
	}
	if diskDir != "" {
		c.disk = NewDiskCache(diskDir, diskTTL)
	}
	return c
}

// Get retrieves a value, promoting disk hits to memory
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	kind := string(KindOf(key))

	if val, found := c.memory.Get(key); found {
		metrics.CacheLookups.WithLabelValues(kind, "memory").Inc()
		return val, true
	}

	if c.disk != nil {
		if val, found := c.disk.Get(key); found {
			_ = c.memory.Set(key, val, 0)
			metrics.CacheLookups.WithLabelValues(kind, "disk").Inc()
			return val, true
		}
	}

	metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	return nil, false
}

// Set stores a value in every layer. A full memory tier is not an error
// while the disk tier accepts the entry.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	memErr := c.memory.Set(key, value, ttl)
	if c.disk == nil {
		return memErr
	}
	if err := c.disk.Set(key, value, ttl); err != nil {
		return err
	}
	if memErr != nil && !errors.Is(memErr, ErrFull) {
		return memErr
	}
	return nil
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	if c.disk != nil {
		return c.disk.Delete(key)
	}
	return nil
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}

// Prune drops expired disk entries; memory expires on its own
func (c *LayeredCache) Prune() (int, error) {
	if c.disk == nil {
		return 0, nil
	}
	return c.disk.Prune()
}

// Usage reports disk usage plus the memory entry count under the "memory" key
func (c *LayeredCache) Usage() (Usage, error) {
	u := Usage{Entries: make(map[Kind]int)}
	if c.disk != nil {
		var err error
		if u, err = c.disk.Usage(); err != nil {
			return u, err
		}
	}
	u.Entries["memory"] = c.memory.Len()
	return u, nil
}
