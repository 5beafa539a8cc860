package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// SalesResponse wraps a paginated sales response.
type SalesResponse struct {
	Sales []domain.Sale `json:"sales"`
	Total int           `json:"total"`
}

// ListSalesParams defines query parameters for sale queries.
type ListSalesParams struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// ListSales returns a user's synced sales matching the parameters.
func (c *Client) ListSales(
	ctx context.Context,
	userID string,
	params *ListSalesParams,
) (*SalesResponse, error) {
	q := url.Values{}
	if !params.From.IsZero() {
		q.Set("from", params.From.Format(time.RFC3339))
	}
	if !params.To.IsZero() {
		q.Set("to", params.To.Format(time.RFC3339))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	path := fmt.Sprintf("/api/v1/accounts/%s/sales", url.PathEscape(userID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp SalesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
