package finsim

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultCache memoizes backtest results by config fingerprint. Results are
// immutable so a cached one can be shared between callers.
type ResultCache interface {
	Get(fingerprint string) (*BacktestResult, bool)
	Add(fingerprint string, r *BacktestResult)
	Purge()
}

// LRUCache is a bounded, concurrency safe ResultCache.
type LRUCache struct {
	cache *lru.Cache[string, *BacktestResult]
}

// NewLRUCache returns a cache of at most size results.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, *BacktestResult](size)
	if err != nil {
		return nil, fmt.Errorf("cannot create result cache: %w", err)
	}
	return &LRUCache{cache: c}, nil
}

func (c *LRUCache) Get(fingerprint string) (*BacktestResult, bool) { return c.cache.Get(fingerprint) }

func (c *LRUCache) Add(fingerprint string, r *BacktestResult) { c.cache.Add(fingerprint, r) }

// Purge empties the cache, market data changes invalidate every result.
func (c *LRUCache) Purge() { c.cache.Purge() }

// Len returns the number of cached results.
func (c *LRUCache) Len() int { return c.cache.Len() }
