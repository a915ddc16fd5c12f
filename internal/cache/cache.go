// Package cache memoizes score reports and fetched pages, in memory and
// on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Kind is the family of values stored under a key
type Kind string

const (
	KindScore Kind = "score"
	KindFetch Kind = "fetch"
)

const (
	keyNamespace = "geoscore"
	keyVersion   = "v1"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ScoreKey identifies one scoring call by its exact inputs
func ScoreKey(text, query string, n int, normalize bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "n=%d\x00normalize=%t\x00query=%s\x00", n, normalize, query)
	h.Write([]byte(text))
	return newKey(KindScore, hex.EncodeToString(h.Sum(nil)))
}

// FetchKey identifies a fetched page by URL
func FetchKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return newKey(KindFetch, hex.EncodeToString(hash[:]))
}

func newKey(kind Kind, digest string) string {
	return keyNamespace + ":" + keyVersion + ":" + string(kind) + ":" + digest
}

// KindOf returns the kind a key was built for, or "" for keys this package
// did not build
func KindOf(key string) Kind {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0] != keyNamespace || parts[1] != keyVersion {
		return ""
	}
	return Kind(parts[2])
}
