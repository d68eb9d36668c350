package publisher

import (
	"strings"
	"time"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

// CurrencyRule tags domestic-market tickers (identified by suffix) with the
// domestic symbol and everything else with the fallback. No FX conversion.
type CurrencyRule struct {
	DomesticSuffix string
	Domestic       string
	Fallback       string
}

// DefaultCurrencyRule is the NSE convention: "RELIANCE.NS" -> ₹, anything else -> $.
var DefaultCurrencyRule = CurrencyRule{DomesticSuffix: ".NS", Domestic: "₹", Fallback: "$"}

func (r CurrencyRule) Currency(ticker string) string {
	if r.DomesticSuffix != "" && strings.HasSuffix(ticker, r.DomesticSuffix) {
		return r.Domestic
	}
	return r.Fallback
}

// Observation is one instrument's price reading for one cycle.
type Observation struct {
	Instrument models.Instrument
	Price      float64
	Currency   string
	ObservedAt time.Time
}

// Update converts the observation to its wire record.
func (o Observation) Update() models.PriceUpdate {
	return models.PriceUpdate{
		Ticker:    o.Instrument.Ticker,
		Name:      o.Instrument.Name,
		Type:      o.Instrument.Type,
		Price:     o.Price,
		Currency:  o.Currency,
		Timestamp: o.ObservedAt.Local().Format(models.TimestampLayout),
	}
}
