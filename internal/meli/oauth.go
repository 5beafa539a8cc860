package meli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthURL  = "https://auth.mercadolibre.com.ar/authorization"
	defaultTokenURL = "https://api.mercadolibre.com/oauth/token" //nolint:gosec // not a credential
)

// TokenExchangeError is returned when the token endpoint responds with a
// non-2xx status. It preserves the provider status code and raw body so
// callers can distinguish invalid_grant from transient failures.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token endpoint error (status %d): %s", e.StatusCode, e.Body)
}

// OAuthClient implements OAuth against the MercadoLibre token endpoint
// using the authorization_code and refresh_token grants.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authURL      string
	tokenURL     string
	client       *http.Client
}

// OAuthOption configures the OAuthClient.
type OAuthOption func(*OAuthClient)

// WithAuthURL overrides the default authorization endpoint.
func WithAuthURL(u string) OAuthOption {
	return func(c *OAuthClient) {
		c.authURL = u
	}
}

// WithTokenURL overrides the default token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(c *OAuthClient) {
		c.tokenURL = u
	}
}

// WithOAuthHTTPClient overrides the default HTTP client.
func WithOAuthHTTPClient(hc *http.Client) OAuthOption {
	return func(c *OAuthClient) {
		c.client = hc
	}
}

// NewOAuthClient creates a MercadoLibre OAuth client for the given
// application credentials and registered redirect URI.
func NewOAuthClient(
	clientID, clientSecret, redirectURI string,
	opts ...OAuthOption,
) *OAuthClient {
	c := &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL returns the provider authorization URL with the given
// opaque state embedded.
func (c *OAuthClient) AuthorizationURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURI},
		"state":         {state},
	}
	return c.authURL + "?" + params.Encode()
}

// Exchange trades an authorization code for a token set.
func (c *OAuthClient) Exchange(
	ctx context.Context,
	code string,
) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
	}
	return c.postToken(ctx, form)
}

// Refresh trades a refresh token for a new token set. MercadoLibre
// rotates refresh tokens on every grant; the caller must persist the
// returned token or the old one becomes useless.
func (c *OAuthClient) Refresh(
	ctx context.Context,
	refreshToken string,
) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}
	return c.postToken(ctx, form)
}

func (c *OAuthClient) postToken(
	ctx context.Context,
	form url.Values,
) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenExchangeError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	return &tokenResp, nil
}
