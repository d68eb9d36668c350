package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSparkURL = "https://query1.finance.yahoo.com"
	sparkPath       = "/v7/finance/spark"

	// sparkMaxSymbols is the request ceiling the spark endpoint enforces.
	sparkMaxSymbols = 30
)

// SparkClient reads intraday 1-minute closes from the Yahoo Finance spark endpoint.
type SparkClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a SparkClient.
type ClientOption func(*SparkClient)

func NewSparkClient(opts ...ClientOption) *SparkClient {
	c := &SparkClient{
		baseURL: defaultSparkURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:       zap.NewNop(),
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithBaseURL(u string) ClientOption {
	return func(c *SparkClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *SparkClient) {
		c.userAgent = ua
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *SparkClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries retries a whole batch request on 5xx/429. Zero disables retries.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *SparkClient) {
		c.maxRetries = max
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *SparkClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *SparkClient) {
		c.httpClient = hc
	}
}

func (c *SparkClient) Name() string  { return "spark" }
func (c *SparkClient) MaxBatch() int { return sparkMaxSymbols }

type sparkResponse struct {
	Spark struct {
		Result []sparkResult `json:"result"`
		Error  *sparkError   `json:"error"`
	} `json:"spark"`
}

type sparkError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type sparkResult struct {
	Symbol   string        `json:"symbol"`
	Response []sparkSeries `json:"response"`
}

type sparkSeries struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchBatch requests one day of 1-minute bars and keeps the latest close per symbol.
func (c *SparkClient) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	if len(symbols) > sparkMaxSymbols {
		return nil, fmt.Errorf("batch of %d symbols exceeds spark limit %d", len(symbols), sparkMaxSymbols)
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("range", "1d")
	query.Set("interval", "1m")

	var resp sparkResponse
	if err := c.get(ctx, sparkPath, query, &resp); err != nil {
		return nil, err
	}

	if resp.Spark.Error != nil && len(resp.Spark.Result) == 0 {
		return nil, fmt.Errorf("spark error %s: %s", resp.Spark.Error.Code, resp.Spark.Error.Description)
	}

	requested := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		requested[s] = true
	}

	prices := make(map[string]float64, len(symbols))
	for _, r := range resp.Spark.Result {
		if !requested[r.Symbol] {
			continue
		}
		if price, ok := lastClose(r.Response); ok {
			prices[r.Symbol] = price
		}
	}

	c.logger.Debug("spark batch fetched",
		zap.Int("requested", len(symbols)),
		zap.Int("priced", len(prices)),
	)

	return prices, nil
}

// lastClose returns the most recent non-null finite close across the series.
func lastClose(series []sparkSeries) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		for _, q := range series[i].Indicators.Quote {
			for j := len(q.Close) - 1; j >= 0; j-- {
				if q.Close[j] != nil && validPrice(*q.Close[j]) {
					return *q.Close[j], true
				}
			}
		}
	}
	return 0, false
}
