package rates

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Cache memoizes rates for the lifetime of one pipeline run. Pair rates are
// keyed by Key; manually entered rates are keyed by origin currency alone and
// reused for every date and target.
type Cache struct {
	mu     sync.RWMutex
	pairs  map[Key]decimal.Decimal
	manual map[string]decimal.Decimal
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		pairs:  make(map[Key]decimal.Decimal),
		manual: make(map[string]decimal.Decimal),
	}
}

// Get returns the cached rate for k.
func (c *Cache) Get(k Key) (decimal.Decimal, bool) {
	k = NewKey(k.From, k.To, k.AsOf)
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.pairs[k]
	return r, ok
}

// Put stores the rate for k.
func (c *Cache) Put(k Key, rate decimal.Decimal) {
	k = NewKey(k.From, k.To, k.AsOf)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs[k] = rate
}

// Manual returns the manually entered rate for an origin currency.
func (c *Cache) Manual(origin string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.manual[origin]
	return r, ok
}

// PutManual stores a manually entered rate for an origin currency.
func (c *Cache) PutManual(origin string, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual[origin] = rate
}

// Len returns the number of cached pair rates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pairs)
}
