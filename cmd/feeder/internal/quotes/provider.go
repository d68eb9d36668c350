// Package quotes fetches last-traded prices for batches of symbols from an
// external quote provider.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
)

var ErrUnknownProvider = errors.New("unknown quote provider")

// Provider returns the latest price for each symbol it has a valid quote for.
// Symbols with missing or non-finite prices are absent from the result, never
// zero-valued, and the result shape is the same for one symbol or many.
type Provider interface {
	Name() string
	// MaxBatch is the most symbols a single FetchBatch call may carry.
	MaxBatch() int
	FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// New builds the provider selected by cfg.Kind.
func New(cfg config.ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Kind {
	case config.ProviderSpark:
		return NewSparkClient(
			WithBaseURL(cfg.BaseURL),
			WithUserAgent(cfg.UserAgent),
			WithTimeout(cfg.Timeout),
			WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
			WithLogger(logger),
		), nil
	case config.ProviderFinanceGo:
		return NewFinanceGoClient(cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Kind)
	}
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0)
}
