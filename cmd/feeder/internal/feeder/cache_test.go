package feeder

import (
	"math"
	"testing"
)

func TestPriceCache_MergeDropsNonFinite(t *testing.T) {
	c := NewPriceCache(4)
	c.Merge(map[string]float64{"AAA": 10.5, "NAN": math.NaN(), "INF": math.Inf(-1)})
	c.Merge(map[string]float64{"BBB": 2})

	if c.Len() != 2 {
		t.Errorf("Expected 2 prices, got %d", c.Len())
	}
	if p, ok := c.Get("AAA"); !ok || p != 10.5 {
		t.Errorf("Expected AAA 10.5, got %v %v", p, ok)
	}
	if _, ok := c.Get("NAN"); ok {
		t.Error("NaN should not be cached")
	}
	if _, ok := c.Get("INF"); ok {
		t.Error("Inf should not be cached")
	}
}
