package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entrySuffix = ".cache"

// DiskCache persists entries as JSON files under one subdirectory per kind
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir. ttl applies to Set calls
// with a zero ttl.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

type diskEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e *diskEntry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Get returns a live entry. Expired or unreadable files are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	entry, err := readEntry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(path)
		}
		return nil, false
	}
	if entry.Key != key || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Data, true
}

// Set writes the entry to a temp file and renames it into place so readers
// never see a partial file
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	now := time.Now()
	data, err := json.Marshal(diskEntry{
		Key:       key,
		Data:      value,
		StoredAt:  now.UTC(),
		ExpiresAt: now.Add(ttl).UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry file, leaving anything else in the directory
func (c *DiskCache) Clear() error {
	_, err := c.walk(func(string, *diskEntry, error) bool { return true })
	return err
}

// Prune removes expired and unreadable entries and reports how many went
func (c *DiskCache) Prune() (int, error) {
	now := time.Now()
	return c.walk(func(_ string, entry *diskEntry, readErr error) bool {
		return readErr != nil || entry.expired(now)
	})
}

// Usage summarizes the entries currently on disk
type Usage struct {
	Entries map[Kind]int `json:"entries"`
	Bytes   int64        `json:"bytes"`
	Expired int          `json:"expired"`
}

// Usage counts entries per kind, live or not
func (c *DiskCache) Usage() (Usage, error) {
	u := Usage{Entries: make(map[Kind]int)}
	now := time.Now()

	_, err := c.walk(func(path string, entry *diskEntry, readErr error) bool {
		if info, err := os.Stat(path); err == nil {
			u.Bytes += info.Size()
		}
		if readErr != nil {
			u.Expired++
			return false
		}
		u.Entries[KindOf(entry.Key)]++
		if entry.expired(now) {
			u.Expired++
		}
		return false
	})
	return u, err
}

// walk visits every entry file and removes those remove reports true
func (c *DiskCache) walk(remove func(path string, entry *diskEntry, readErr error) bool) (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, entrySuffix) {
			return nil
		}

		entry, readErr := readEntry(path)
		if !remove(path, entry, readErr) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func readEntry(path string) (*diskEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &entry, nil
}

// path maps a key to <dir>/<kind>/<name>.cache with no ':' in the name
func (c *DiskCache) path(key string) string {
	kind := string(KindOf(key))
	if kind == "" {
		kind = "other"
	}
	return filepath.Join(c.dir, kind, strings.ReplaceAll(key, ":", "_")+entrySuffix)
}
