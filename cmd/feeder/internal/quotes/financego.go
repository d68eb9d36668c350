package quotes

import (
	"context"
	"net/http"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

const financeGoMaxSymbols = 50

// quoteIter is the subset of *quote.Iter the client reads.
type quoteIter interface {
	Next() bool
	Quote() *finance.Quote
	Err() error
}

// FinanceGoClient reads regular-market prices through piquette/finance-go.
type FinanceGoClient struct {
	list func(symbols []string) quoteIter
}

func NewFinanceGoClient(timeout time.Duration) *FinanceGoClient {
	if timeout > 0 {
		finance.SetHTTPClient(&http.Client{Timeout: timeout})
	}
	return &FinanceGoClient{
		list: func(symbols []string) quoteIter { return quote.List(symbols) },
	}
}

func (c *FinanceGoClient) Name() string  { return "financego" }
func (c *FinanceGoClient) MaxBatch() int { return financeGoMaxSymbols }

type listResult struct {
	prices map[string]float64
	err    error
}

// FetchBatch runs the blocking finance-go iterator and gives up when ctx ends.
func (c *FinanceGoClient) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	done := make(chan listResult, 1)
	go func() {
		done <- c.collect(symbols)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.prices, res.err
	}
}

func (c *FinanceGoClient) collect(symbols []string) listResult {
	requested := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		requested[s] = true
	}

	prices := make(map[string]float64, len(symbols))
	iter := c.list(symbols)
	for iter.Next() {
		q := iter.Quote()
		// finance-go leaves RegularMarketPrice at zero when Yahoo has no quote.
		if q == nil || !requested[q.Symbol] || q.RegularMarketPrice == 0 || !validPrice(q.RegularMarketPrice) {
			continue
		}
		prices[q.Symbol] = q.RegularMarketPrice
	}
	if err := iter.Err(); err != nil {
		return listResult{err: err}
	}

	return listResult{prices: prices}
}
