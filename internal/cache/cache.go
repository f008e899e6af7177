package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching serialized passage indexes
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// IndexKey generates a cache key from a book identifier and the hash of its
// text, so a re-chunked or edited novel never hits a stale index.
func IndexKey(book string, text string) string {
	hash := sha256.Sum256([]byte(book + "\x00" + text))
	return "canoncourt:index:v1:" + hex.EncodeToString(hash[:])
}
