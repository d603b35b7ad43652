// Package scryfall provides a rate-limited client for the Scryfall
// card-catalog API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production Scryfall API endpoint.
	DefaultBaseURL = "https://api.scryfall.com"

	// rateLimitDelay spaces requests per Scryfall's guidance (10 req/sec).
	rateLimitDelay = 100 * time.Millisecond

	// requestTimeout bounds each catalog lookup. Enrichment treats a
	// timed-out lookup as a miss, so this stays short.
	requestTimeout = 10 * time.Second
)

// Client is a Scryfall API client with request rate limiting. Lookups
// are single-shot: a failed request is reported to the caller, never
// retried internally.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "commander-companion/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCard retrieves a card by its Scryfall ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var card Card
	if err := c.doRequest(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	return &card, nil
}

// GetCardByFuzzyName retrieves a card by fuzzy name match.
func (c *Client) GetCardByFuzzyName(ctx context.Context, name string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.doRequest(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("get card by name %q: %w", name, err)
	}
	return &card, nil
}

// GetPrintings retrieves the printings list behind a card's
// prints_search_uri. Only the first page is fetched; language-specific
// printings appear there for all but the largest reprint sets.
func (c *Client) GetPrintings(ctx context.Context, printsURI string) (*CardList, error) {
	var list CardList
	if err := c.doRequest(ctx, printsURI, &list); err != nil {
		return nil, fmt.Errorf("get printings: %w", err)
	}
	return &list, nil
}

// doRequest performs a single rate-limited GET and decodes the JSON
// response into result. Non-200 statuses are errors.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("scryfall API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}
