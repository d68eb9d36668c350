package models

// TimestampLayout is the wire format of PriceUpdate.Timestamp (local clock, second precision).
const TimestampLayout = "2006-01-02 15:04:05"

// Instrument is a catalog entry understood by the quote provider.
type Instrument struct {
	Ticker string `yaml:"ticker" json:"ticker"`
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"` // category, e.g. "Banking"
}

// PriceUpdate is the record published once per instrument per cycle
type PriceUpdate struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Timestamp string  `json:"timestamp"`
}
