package meli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/facuhernandez/melitrack/internal/metrics"
)

const defaultAPIURL = "https://api.mercadolibre.com"

// HTTPClient implements Client against the MercadoLibre REST API.
type HTTPClient struct {
	apiURL      string
	client      *http.Client
	rateLimiter *RateLimiter
}

// ClientOption configures the HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIURL overrides the default API base URL.
func WithAPIURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.apiURL = u
	}
}

// WithClientHTTPClient overrides the default HTTP client.
func WithClientHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and daily
// API call limits. When set, every resource call goes through Wait() first.
func WithRateLimiter(r *RateLimiter) ClientOption {
	return func(c *HTTPClient) {
		c.rateLimiter = r
	}
}

// NewHTTPClient creates a MercadoLibre resource API client.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchItemIDs fetches one page of the seller's active listing IDs via
// GET /users/{seller_id}/items/search.
func (c *HTTPClient) SearchItemIDs(
	ctx context.Context,
	token, sellerID string,
	limit, offset int,
) (*ItemSearchResult, error) {
	params := url.Values{
		"status": {"active"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	u := fmt.Sprintf(
		"%s/users/%s/items/search?%s",
		c.apiURL, url.PathEscape(sellerID), params.Encode(),
	)

	var result ItemSearchResult
	if err := c.getJSON(ctx, token, u, "items_search", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetItem fetches the detail record for one listing via GET /items/{id}.
func (c *HTTPClient) GetItem(
	ctx context.Context,
	token, itemID string,
) (*Item, error) {
	u := c.apiURL + "/items/" + url.PathEscape(itemID)

	var item Item
	if err := c.getJSON(ctx, token, u, "items_get", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchOrders fetches one page of the seller's orders created at or after
// from via GET /orders/search, sorted oldest first.
func (c *HTTPClient) SearchOrders(
	ctx context.Context,
	token, sellerID string,
	from time.Time,
	limit, offset int,
) (*OrderSearchResult, error) {
	params := url.Values{
		"seller":                  {sellerID},
		"order.date_created.from": {from.UTC().Format(time.RFC3339)},
		"sort":                    {"date_asc"},
		"limit":                   {strconv.Itoa(limit)},
		"offset":                  {strconv.Itoa(offset)},
	}
	u := c.apiURL + "/orders/search?" + params.Encode()

	var result OrderSearchResult
	if err := c.getJSON(ctx, token, u, "orders_search", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) getJSON(
	ctx context.Context,
	token, u, endpoint string,
	out any,
) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.MeliDailyLimitHits.Inc()
			}
			return fmt.Errorf("rate limit: %w", err)
		}
		metrics.MeliDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
	}
	metrics.MeliAPICallsTotal.WithLabelValues(endpoint).Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"MercadoLibre API error (status %d): %s",
			resp.StatusCode,
			string(body),
		)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing API response: %w", err)
	}

	return nil
}
