// Package translate provides a best-effort machine-translation client
// used as a fallback when a localized printing of a card's rules text
// does not exist.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 8 * time.Second

// ErrNoEndpoints is returned when the client has no endpoints configured.
var ErrNoEndpoints = errors.New("no translation endpoints configured")

// request is the LibreTranslate-compatible request body.
type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

// response is the subset of the endpoint response we consume.
type response struct {
	TranslatedText string `json:"translatedText"`
}

// Client translates text through a prioritized list of endpoints.
// Endpoints are tried in order; the first success wins.
type Client struct {
	endpoints  []string
	httpClient *http.Client
}

// NewClient creates a translation client. The endpoint order is the
// priority order.
func NewClient(endpoints []string) *Client {
	return &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Translate submits text to each endpoint in priority order and returns
// the first successful translation. It returns an error only when every
// endpoint fails; the caller decides whether to keep the original text.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if len(c.endpoints) == 0 {
		return "", ErrNoEndpoints
	}

	var lastErr error
	for _, endpoint := range c.endpoints {
		translated, err := c.translateOne(ctx, endpoint, text, sourceLang, targetLang)
		if err != nil {
			lastErr = err
			continue
		}
		return translated, nil
	}

	return "", fmt.Errorf("all translation endpoints failed: %w", lastErr)
}

// translateOne performs a single translation request against one
// endpoint. Non-200 statuses and non-JSON bodies are errors.
func (c *Client) translateOne(ctx context.Context, endpoint, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(request{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("translation endpoint returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.TranslatedText == "" {
		return "", errors.New("translation endpoint returned empty text")
	}

	return parsed.TranslatedText, nil
}
