package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPair = common.HexToAddress("0x62191c893df8d26ac295ba1274a00975dc07190c")

func newTestClient(url string, now func() time.Time) *Client {
	return NewClient(ClientConfig{
		BaseURL:   url,
		BaseDelay: time.Millisecond,
		Now:       now,
	}, nil)
}

func TestPairDataParsesStringAndNumberFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"pair":{"priceUsd":"0.0421","volume":{"h24":12345.6},"fdv":"420000","liquidity":{"usd":98765.4}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	data := client.PairData(context.Background(), testPair)
	assert.InDelta(t, 0.0421, data.PriceUSD, 1e-12)
	assert.InDelta(t, 98765.4, data.LiquidityUSD, 1e-9)

	stats := client.TokenStats(context.Background(), testPair)
	assert.InDelta(t, 12345.6, stats.Volume24h, 1e-9)
	assert.InDelta(t, 420000, stats.MarketCap, 1e-9)
}

func TestPairDataUsesPairsArrayFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"pairs":[{"priceUsd":"1.25","liquidity":{"usd":"100"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	data := client.PairData(context.Background(), testPair)
	assert.InDelta(t, 1.25, data.PriceUSD, 1e-12)
}

func TestRateLimitedThenSuccessWithinBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"pair":{"priceUsd":"2.5"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	data := client.PairData(context.Background(), testPair)

	require.EqualValues(t, 4, calls.Load())
	assert.InDelta(t, 2.5, data.PriceUSD, 1e-12)
}

func TestExhaustedRetriesReturnZeroNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	data := client.PairData(context.Background(), testPair)
	assert.Zero(t, data.PriceUSD)
	assert.Zero(t, data.LiquidityUSD)
}

func TestNoBackoffSleepAfterFinalAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:     server.URL,
		MaxAttempts: 1,
		BaseDelay:   time.Second,
	}, nil)

	start := time.Now()
	data := client.PairData(context.Background(), testPair)

	assert.Zero(t, data.PriceUSD)
	assert.Less(t, time.Since(start), 500*time.Millisecond,
		"exhaustion must return without a trailing backoff sleep")
}

func TestClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	data := client.PairData(context.Background(), testPair)

	assert.Zero(t, data.PriceUSD)
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestCacheServesWithinTTL(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"pair":{"priceUsd":"3"}}`))
	}))
	defer server.Close()

	now := time.Now()
	clock := &now
	var mu sync.Mutex
	client := newTestClient(server.URL, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *clock
	})

	client.PairData(context.Background(), testPair)
	client.PairData(context.Background(), testPair)
	assert.EqualValues(t, 1, calls.Load(), "second lookup must hit cache")

	mu.Lock()
	later := now.Add(2 * time.Minute)
	clock = &later
	mu.Unlock()

	client.PairData(context.Background(), testPair)
	assert.EqualValues(t, 2, calls.Load(), "expired entry must refetch")
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"pair":{"priceUsd":"7"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	var wg sync.WaitGroup
	results := make([]PairData, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = client.PairData(context.Background(), testPair)
		}(i)
	}

	// Give both goroutines time to reach the single-flight gate, then let
	// the one in-flight request complete.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load(), "exactly one network call expected")
	assert.Equal(t, results[0], results[1])
	assert.InDelta(t, 7, results[0].PriceUSD, 1e-12)
}
