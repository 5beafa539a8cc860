package meli_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/meli"
)

// tokenJSON returns a valid MercadoLibre token response as JSON bytes.
func tokenJSON(access, refresh string) []byte {
	return []byte(fmt.Sprintf(
		`{"access_token":%q,"token_type":"Bearer","expires_in":21600,"user_id":123456789,"refresh_token":%q}`,
		access, refresh,
	))
}

func TestOAuthClient_AuthorizationURL(t *testing.T) {
	t.Parallel()

	c := meli.NewOAuthClient(
		"app-123",
		"secret-456",
		"https://dash.example.com/mercadolibre/callback",
	)

	raw := c.AuthorizationURL("state-abc")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth.mercadolibre.com.ar", u.Host)
	assert.Equal(t, "/authorization", u.Path)
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "app-123", u.Query().Get("client_id"))
	assert.Equal(
		t,
		"https://dash.example.com/mercadolibre/callback",
		u.Query().Get("redirect_uri"),
	)
	assert.Equal(t, "state-abc", u.Query().Get("state"))
}

func TestOAuthClient_Exchange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		errContain string
		wantStatus int
	}{
		{
			name: "successful exchange",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(tokenJSON("APP_USR-token", "TG-refresh"))
			},
		},
		{
			name: "server rejects code",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			},
			wantErr:    true,
			errContain: "invalid_grant",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "server returns 500",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    true,
			errContain: "status 500",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "server returns invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:    true,
			errContain: "parsing token response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := meli.NewOAuthClient(
				"app-123",
				"secret-456",
				"https://dash.example.com/mercadolibre/callback",
				meli.WithTokenURL(srv.URL),
			)

			resp, err := c.Exchange(context.Background(), "TG-code-789")

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				if tt.wantStatus != 0 {
					var exchErr *meli.TokenExchangeError
					require.ErrorAs(t, err, &exchErr)
					assert.Equal(t, tt.wantStatus, exchErr.StatusCode)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "APP_USR-token", resp.AccessToken)
			assert.Equal(t, "TG-refresh", resp.RefreshToken)
			assert.Equal(t, 21600, resp.ExpiresIn)
			assert.Equal(t, int64(123456789), resp.UserID)
		})
	}
}

func TestOAuthClient_ExchangeRequestFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(
				t,
				"application/x-www-form-urlencoded",
				r.Header.Get("Content-Type"),
			)

			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
			assert.Equal(t, "app-123", r.FormValue("client_id"))
			assert.Equal(t, "secret-456", r.FormValue("client_secret"))
			assert.Equal(t, "TG-code-789", r.FormValue("code"))
			assert.Equal(
				t,
				"https://dash.example.com/mercadolibre/callback",
				r.FormValue("redirect_uri"),
			)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("APP_USR-token", "TG-refresh"))
		}),
	)
	defer srv.Close()

	c := meli.NewOAuthClient(
		"app-123",
		"secret-456",
		"https://dash.example.com/mercadolibre/callback",
		meli.WithTokenURL(srv.URL),
	)

	_, err := c.Exchange(context.Background(), "TG-code-789")
	require.NoError(t, err)
}

func TestOAuthClient_RefreshRequestFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
			assert.Equal(t, "app-123", r.FormValue("client_id"))
			assert.Equal(t, "secret-456", r.FormValue("client_secret"))
			assert.Equal(t, "TG-old-refresh", r.FormValue("refresh_token"))
			assert.Empty(t, r.FormValue("redirect_uri"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("APP_USR-new", "TG-new-refresh"))
		}),
	)
	defer srv.Close()

	c := meli.NewOAuthClient(
		"app-123",
		"secret-456",
		"https://dash.example.com/mercadolibre/callback",
		meli.WithTokenURL(srv.URL),
	)

	resp, err := c.Refresh(context.Background(), "TG-old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-new", resp.AccessToken)
	assert.Equal(t, "TG-new-refresh", resp.RefreshToken)
}

func TestTokenExchangeError_Unwrap(t *testing.T) {
	t.Parallel()

	err := &meli.TokenExchangeError{StatusCode: 401, Body: `{"error":"invalid_client"}`}
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid_client")

	wrapped := fmt.Errorf("refreshing token: %w", err)
	var target *meli.TokenExchangeError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 401, target.StatusCode)
}
