// Package pricefeed fetches pair market data from a DexScreener-style
// endpoint. The feed is untrusted and best-effort: failures never propagate,
// callers always receive zero-valued data on exhaustion.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PairData is the pricing view of one liquidity pair.
type PairData struct {
	PriceUSD     float64
	LiquidityUSD float64
}

// TokenStats is the market-stats view of one pair (market cap from fdv).
type TokenStats struct {
	PriceUSD  float64
	Volume24h float64
	MarketCap float64
}

// ClientConfig tunes the feed client. Zero values get defaults.
type ClientConfig struct {
	BaseURL     string
	TTL         time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	HTTPClient  *http.Client
	Now         func() time.Time
}

// Client caches successful pair lookups for a short TTL and de-duplicates
// concurrent identical requests: callers racing for the same pair share one
// network call.
type Client struct {
	baseURL     string
	ttl         time.Duration
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
	now         func() time.Time
	logger      *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	at   time.Time
	pair pairPayload
}

// NewClient builds a feed client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 400 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		httpClient:  cfg.HTTPClient,
		now:         cfg.Now,
		logger:      logger,
		cache:       make(map[string]cacheEntry),
	}
}

// PairData returns price and liquidity for a pair, or zeros when the feed is
// unavailable.
func (c *Client) PairData(ctx context.Context, pair common.Address) PairData {
	payload, ok := c.fetchPair(ctx, pair)
	if !ok {
		return PairData{}
	}
	return PairData{
		PriceUSD:     float64(payload.PriceUSD),
		LiquidityUSD: float64(payload.Liquidity.USD),
	}
}

// TokenStats returns price, 24h volume, and market cap for a pair, or zeros
// when the feed is unavailable.
func (c *Client) TokenStats(ctx context.Context, pair common.Address) TokenStats {
	payload, ok := c.fetchPair(ctx, pair)
	if !ok {
		return TokenStats{}
	}
	return TokenStats{
		PriceUSD:  float64(payload.PriceUSD),
		Volume24h: float64(payload.Volume.H24),
		MarketCap: float64(payload.FDV),
	}
}

func (c *Client) fetchPair(ctx context.Context, pair common.Address) (pairPayload, bool) {
	key := strings.ToLower(pair.Hex())

	c.mu.Lock()
	entry, cached := c.cache[key]
	c.mu.Unlock()
	if cached && c.now().Sub(entry.at) < c.ttl {
		return entry.pair, true
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under single-flight: a racing caller may have filled
		// the cache while this one waited.
		c.mu.Lock()
		entry, cached := c.cache[key]
		c.mu.Unlock()
		if cached && c.now().Sub(entry.at) < c.ttl {
			return entry.pair, nil
		}

		payload, ok := c.fetchRemote(ctx, key)
		if !ok {
			return nil, fmt.Errorf("pair %s unavailable", key)
		}

		c.mu.Lock()
		c.cache[key] = cacheEntry{at: c.now(), pair: payload}
		c.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return pairPayload{}, false
	}
	return value.(pairPayload), true
}

// fetchRemote is the bounded retry loop: 429 and 5xx (and transport errors)
// back off exponentially, anything else is terminal.
func (c *Client) fetchRemote(ctx context.Context, key string) (pairPayload, bool) {
	url := c.baseURL + "/" + key

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		payload, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return payload, true
		}
		if !retryable {
			c.logger.Warn("price feed fetch failed", zap.String("pair", key), zap.Error(err))
			return pairPayload{}, false
		}
		if attempt == c.maxAttempts-1 {
			break
		}

		backoff := c.baseDelay * (1 << attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return pairPayload{}, false
		case <-timer.C:
		}
	}

	c.logger.Warn("price feed retries exhausted", zap.String("pair", key))
	return pairPayload{}, false
}

func (c *Client) fetchOnce(ctx context.Context, url string) (pairPayload, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pairPayload{}, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pairPayload{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return pairPayload{}, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return pairPayload{}, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	var decoded feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return pairPayload{}, false, fmt.Errorf("decode response: %w", err)
	}

	if decoded.Pair != nil {
		return *decoded.Pair, false, nil
	}
	if len(decoded.Pairs) > 0 {
		return decoded.Pairs[0], false, nil
	}
	return pairPayload{}, false, fmt.Errorf("no pair in response")
}
