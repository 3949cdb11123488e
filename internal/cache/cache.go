// Package cache backs the HTTP fetcher and the scraped-purpose store with a
// layered memory/disk cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NoExpiry marks an entry that should never expire
const NoExpiry = time.Duration(-1)

// Cache is the storage interface shared by the memory and disk layers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// URLKey derives a stable cache key from a URL
func URLKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "fetch-" + hex.EncodeToString(hash[:])
}
