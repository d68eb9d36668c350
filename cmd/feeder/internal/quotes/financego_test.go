package quotes

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
)

type fakeIter struct {
	quotes []*finance.Quote
	err    error
	pos    int
}

func (f *fakeIter) Next() bool {
	if f.pos >= len(f.quotes) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeIter) Quote() *finance.Quote { return f.quotes[f.pos-1] }
func (f *fakeIter) Err() error            { return f.err }

func TestFinanceGoClient_FetchBatch(t *testing.T) {
	c := &FinanceGoClient{list: func(symbols []string) quoteIter {
		return &fakeIter{quotes: []*finance.Quote{
			{Symbol: "AAA", RegularMarketPrice: 10.5},
			{Symbol: "BBB", RegularMarketPrice: 0},
			{Symbol: "CCC", RegularMarketPrice: math.Inf(1)},
			{Symbol: "ZZZ", RegularMarketPrice: 1},
			nil,
		}}
	}}

	prices, err := c.FetchBatch(context.Background(), []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(prices) != 1 || prices["AAA"] != 10.5 {
		t.Errorf("Expected only AAA=10.5, got %v", prices)
	}
}

func TestFinanceGoClient_IterError(t *testing.T) {
	boom := errors.New("remote error")
	c := &FinanceGoClient{list: func(symbols []string) quoteIter {
		return &fakeIter{err: boom}
	}}

	_, err := c.FetchBatch(context.Background(), []string{"AAA"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected iterator error, got %v", err)
	}
}

func TestFinanceGoClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := &FinanceGoClient{list: func(symbols []string) quoteIter {
		<-release
		return &fakeIter{}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.FetchBatch(ctx, []string{"AAA"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
