package validator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dgraph-io/ristretto"
)

// countCache memoizes Count results keyed by canonical SQL text, so
// subgoals shared across candidates are evaluated once. Eviction is
// cost-aware and policy-free with respect to correctness: the cache never
// influences rule ordering, only the cost of getting there.
type countCache struct {
	cache *ristretto.Cache
}

func newCountCache(maxItems int64) (*countCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &countCache{cache: c}, nil
}

func cacheKey(sqlText string) string {
	sum := sha256.Sum256([]byte(sqlText))
	return hex.EncodeToString(sum[:])
}

func (c *countCache) get(sqlText string) (uint64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.cache.Get(cacheKey(sqlText))
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

func (c *countCache) set(sqlText string, count uint64) {
	if c == nil {
		return
	}
	c.cache.Set(cacheKey(sqlText), count, 1)
}
