package report

import (
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	report    string
	expiresAt time.Time
}

// Cache remembers recent reports keyed by the normalized image content, so
// re-submitting an identical image within the TTL skips the remote call.
type Cache struct {
	ll  *lru.Cache[string, cacheEntry]
	ttl time.Duration
}

func NewCache(maxEntries int, ttl time.Duration) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	ll, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{ll: ll, ttl: ttl}, nil
}

// Key derives the cache key from the normalized image bytes and the model
// that would analyze them.
func Key(model string, data []byte) string {
	return fmt.Sprintf("%s:%x", model, sha256.Sum256(data))
}

func (c *Cache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	ent, ok := c.ll.Get(key)
	if !ok {
		return "", false
	}
	if time.Now().After(ent.expiresAt) {
		c.ll.Remove(key)
		return "", false
	}
	return ent.report, true
}

func (c *Cache) Set(key, reportText string) {
	if c == nil {
		return
	}
	c.ll.Add(key, cacheEntry{report: reportText, expiresAt: time.Now().Add(c.ttl)})
}
