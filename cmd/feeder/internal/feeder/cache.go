package feeder

import "math"

// PriceCache holds the prices fetched during a single cycle.
type PriceCache struct {
	prices map[string]float64
}

func NewPriceCache(capacity int) *PriceCache {
	return &PriceCache{prices: make(map[string]float64, capacity)}
}

// Merge adds finite prices from one batch result.
func (c *PriceCache) Merge(batch map[string]float64) {
	for symbol, price := range batch {
		if math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		c.prices[symbol] = price
	}
}

func (c *PriceCache) Get(symbol string) (float64, bool) {
	p, ok := c.prices[symbol]
	return p, ok
}

func (c *PriceCache) Len() int { return len(c.prices) }
