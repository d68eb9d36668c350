package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sparkBody = `{"spark":{"result":[
 {"symbol":"AAA","response":[{"timestamp":[1,2,3],"indicators":{"quote":[{"close":[10.0,10.25,10.5]}]}}]},
 {"symbol":"BBB","response":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[null,null]}]}}]},
 {"symbol":"CCC","response":[{"timestamp":[1,2,3],"indicators":{"quote":[{"close":[7.0,7.5,null]}]}}]},
 {"symbol":"ZZZ","response":[{"timestamp":[1],"indicators":{"quote":[{"close":[1.0]}]}}]}
],"error":null}}`

func newSparkServer(t *testing.T, handler http.HandlerFunc) *SparkClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSparkClient(WithBaseURL(srv.URL), WithRetries(0, time.Millisecond))
}

func TestSparkClient_FetchBatch(t *testing.T) {
	var gotQuery string
	var gotUA string
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != sparkPath {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(sparkBody))
	})
	WithUserAgent("feed-test")(c)

	prices, err := c.FetchBatch(context.Background(), []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	if prices["AAA"] != 10.5 {
		t.Errorf("Expected AAA 10.5, got %v", prices["AAA"])
	}
	if _, ok := prices["BBB"]; ok {
		t.Error("BBB has only null closes and should be omitted")
	}
	if prices["CCC"] != 7.5 {
		t.Errorf("Expected CCC to fall back to last non-null close 7.5, got %v", prices["CCC"])
	}
	if _, ok := prices["ZZZ"]; ok {
		t.Error("Unrequested symbol ZZZ should be ignored")
	}

	if !strings.Contains(gotQuery, "symbols=AAA%2CBBB%2CCCC") {
		t.Errorf("Symbols not joined in query: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "interval=1m") || !strings.Contains(gotQuery, "range=1d") {
		t.Errorf("Expected 1d/1m query, got %s", gotQuery)
	}
	if gotUA != "feed-test" {
		t.Errorf("Expected user agent feed-test, got %q", gotUA)
	}
}

func TestSparkClient_SingleSymbolSameShape(t *testing.T) {
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"spark":{"result":[{"symbol":"AAA","response":[{"indicators":{"quote":[{"close":[3.25]}]}}]}],"error":null}}`))
	})

	prices, err := c.FetchBatch(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(prices) != 1 || prices["AAA"] != 3.25 {
		t.Errorf("Expected {AAA:3.25}, got %v", prices)
	}
}

func TestSparkClient_ServerError(t *testing.T) {
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchBatch(context.Background(), []string{"AAA"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || !apiErr.IsRetryable() {
		t.Errorf("Unexpected APIError %+v", apiErr)
	}
}

func TestSparkClient_RetriesWholeBatch(t *testing.T) {
	var calls atomic.Int32
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sparkBody))
	})
	WithRetries(2, time.Millisecond)(c)

	prices, err := c.FetchBatch(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
	if prices["AAA"] != 10.5 {
		t.Errorf("Expected AAA 10.5, got %v", prices)
	}
}

func TestSparkClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	WithRetries(3, time.Millisecond)(c)

	if _, err := c.FetchBatch(context.Background(), []string{"AAA"}); err == nil {
		t.Fatal("Expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls.Load())
	}
}

func TestSparkClient_SparkErrorObject(t *testing.T) {
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"spark":{"result":[],"error":{"code":"Bad Request","description":"invalid symbols"}}}`))
	})

	_, err := c.FetchBatch(context.Background(), []string{"AAA"})
	if err == nil || !strings.Contains(err.Error(), "invalid symbols") {
		t.Errorf("Expected spark error, got %v", err)
	}
}

func TestSparkClient_InvalidJSON(t *testing.T) {
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"spark":`))
	})

	if _, err := c.FetchBatch(context.Background(), []string{"AAA"}); err == nil {
		t.Error("Expected unmarshal error")
	}
}

func TestSparkClient_RejectsOversizedBatch(t *testing.T) {
	c := NewSparkClient()
	symbols := make([]string, c.MaxBatch()+1)
	for i := range symbols {
		symbols[i] = "S"
	}

	if _, err := c.FetchBatch(context.Background(), symbols); err == nil {
		t.Error("Expected error for batch above provider ceiling")
	}
}

func TestSparkClient_ContextTimeout(t *testing.T) {
	c := newSparkServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.FetchBatch(ctx, []string{"AAA"}); err == nil {
		t.Error("Expected timeout error")
	}
}
