package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ListingsResponse wraps a paginated listings response.
type ListingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// ListListingsParams defines query parameters for listing queries.
type ListListingsParams struct {
	Status     string
	CategoryID string
	MinPrice   float64
	MaxPrice   float64
	Limit      int
	Offset     int
	OrderBy    string
}

// ListListings returns a user's synced publications matching the parameters.
func (c *Client) ListListings(
	ctx context.Context,
	userID string,
	params *ListListingsParams,
) (*ListingsResponse, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.CategoryID != "" {
		q.Set("category_id", params.CategoryID)
	}
	if params.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(params.MinPrice, 'f', -1, 64))
	}
	if params.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(params.MaxPrice, 'f', -1, 64))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := fmt.Sprintf("/api/v1/accounts/%s/listings", url.PathEscape(userID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListingsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
