package zenquotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"bottleup/searchworker/internal/domain"
)

const (
	defaultEndpoint  = "https://zenquotes.io/api/today"
	defaultUserAgent = "bottleup-search-worker/1.0"
	defaultCacheTTL  = time.Hour

	cacheKey     = "bottleup:quote:today"
	maxBodyBytes = 64 * 1024
)

// Fallback is served whenever the upstream quote cannot be fetched, so the
// quote endpoint never fails.
var Fallback = domain.Quote{
	Text:   "The only way to do great work is to love what you do.",
	Author: "Steve Jobs",
}

// Config describes how to reach the ZenQuotes API.
type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
	Redis     *redis.Client
	CacheTTL  time.Duration
}

// Client fetches the quote of the day, caching it in Redis when a client
// is configured. The upstream refreshes daily, so a short TTL is enough.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	redis     *redis.Client
	cacheTTL  time.Duration
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      httpClient,
		redis:     cfg.Redis,
		cacheTTL:  ttl,
	}
}

// Today returns the quote of the day.
func (c *Client) Today(ctx context.Context) (domain.Quote, error) {
	if quote, ok := c.cached(ctx); ok {
		return quote, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("fetch quote: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("read quote response: %w", err)
	}

	var payload []struct {
		Quote  string `json:"q"`
		Author string `json:"a"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote response: %w", err)
	}
	if len(payload) == 0 || payload[0].Quote == "" {
		return domain.Quote{}, errors.New("empty quote payload")
	}

	quote := domain.Quote{Text: payload[0].Quote, Author: payload[0].Author}
	c.store(ctx, quote)
	return quote, nil
}

func (c *Client) cached(ctx context.Context) (domain.Quote, bool) {
	if c.redis == nil {
		return domain.Quote{}, false
	}
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return domain.Quote{}, false
	}
	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return domain.Quote{}, false
	}
	return quote, quote.Text != ""
}

func (c *Client) store(ctx context.Context, quote domain.Quote) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(quote)
	if err != nil {
		return
	}
	// Best effort: a failed cache write must not break the response.
	_ = c.redis.Set(ctx, cacheKey, data, c.cacheTTL).Err()
}
