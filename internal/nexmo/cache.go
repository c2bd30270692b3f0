package nexmo

import "sync"

// messageResult is a cached single-message lookup. A failed lookup is kept
// as its error so it is not retried.
type messageResult struct {
	msg *Message
	err error
}

// cache holds results for the lifetime of a Client. Entries are never
// evicted or refreshed. The lock is not held across network calls; when two
// callers race on a miss the first stored value wins.
type cache struct {
	mu       sync.Mutex
	balance  *float64
	pricing  map[string]*PricingResponse
	numbers  []Number
	hasNums  bool
	messages map[string]messageResult
}

func newCache() *cache {
	return &cache{
		pricing:  make(map[string]*PricingResponse),
		messages: make(map[string]messageResult),
	}
}

func (c *cache) getBalance() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance == nil {
		return 0, false
	}
	return *c.balance, true
}

func (c *cache) setBalance(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance == nil {
		c.balance = &v
	}
	return *c.balance
}

func (c *cache) getPricing(country string) (*PricingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pricing[country]
	return p, ok
}

func (c *cache) setPricing(country string, p *PricingResponse) *PricingResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.pricing[country]; ok {
		return existing
	}
	c.pricing[country] = p
	return p
}

func (c *cache) getNumbers() ([]Number, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numbers, c.hasNums
}

func (c *cache) setNumbers(nums []Number) []Number {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasNums {
		c.numbers = nums
		c.hasNums = true
	}
	return c.numbers
}

func (c *cache) getMessage(id string) (messageResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.messages[id]
	return r, ok
}

func (c *cache) setMessage(id string, r messageResult) messageResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.messages[id]; ok {
		return existing
	}
	c.messages[id] = r
	return r
}
