package client

import (
	"context"
	"fmt"
	"net/url"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ConnectResponse carries the authorization URL for a new connection.
type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// Connect starts an OAuth connection for a user.
func (c *Client) Connect(ctx context.Context, userID string) (*ConnectResponse, error) {
	body := map[string]string{"user_id": userID}

	var resp ConnectResponse
	if err := c.post(ctx, "/api/v1/connect", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CallbackResponse is the completed-authorization result.
type CallbackResponse struct {
	Status  domain.ConnectionStatus `json:"status"`
	Account domain.Account          `json:"account"`
}

// Callback completes an OAuth connection with the code and state from the
// provider redirect.
func (c *Client) Callback(ctx context.Context, code, state string) (*CallbackResponse, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)

	var resp CallbackResponse
	if err := c.get(ctx, "/api/v1/callback?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatusResponse reports a user's connection status.
type StatusResponse struct {
	UserID string                  `json:"user_id"`
	Status domain.ConnectionStatus `json:"status"`
}

// Status returns the connection status for a user.
func (c *Client) Status(ctx context.Context, userID string) (*StatusResponse, error) {
	var resp StatusResponse
	path := fmt.Sprintf("/api/v1/accounts/%s/status", url.PathEscape(userID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
