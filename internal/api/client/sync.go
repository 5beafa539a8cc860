package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// SyncResponse reports how many rows a triggered sync wrote.
type SyncResponse struct {
	Target           string `json:"target"`
	ListingsUpserted int    `json:"listings_upserted"`
	SalesUpserted    int    `json:"sales_upserted"`
}

// TriggerSync runs a sync for a user. Target is catalog, orders, or all.
func (c *Client) TriggerSync(ctx context.Context, userID, target string) (*SyncResponse, error) {
	body := map[string]string{}
	if target != "" {
		body["target"] = target
	}

	var resp SyncResponse
	path := fmt.Sprintf("/api/v1/accounts/%s/sync", url.PathEscape(userID))
	if err := c.post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSyncRuns returns a user's recent sync run records.
func (c *Client) ListSyncRuns(
	ctx context.Context,
	userID, job string,
	limit int,
) ([]domain.SyncRun, error) {
	q := url.Values{}
	if job != "" {
		q.Set("job", job)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/api/v1/accounts/%s/syncs", url.PathEscape(userID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var runs []domain.SyncRun
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
