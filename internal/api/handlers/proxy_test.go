package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/api/handlers"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func relay(t *testing.T, h *handlers.ProxyHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/proxy", strings.NewReader(body),
	)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Relay(e.NewContext(req, rec)))
	return rec
}

func TestProxy_RelaysGet(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/123456789/items/search", r.URL.Path)
		assert.Equal(t, "Bearer APP_USR-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":["MLA111"]}`))
	}))
	defer upstream.Close()

	h := handlers.NewProxyHandler(quietLogger(), handlers.WithProxyBaseURL(upstream.URL))

	rec := relay(t, h, `{
		"path": "/users/123456789/items/search",
		"method": "GET",
		"headers": {"Authorization": "Bearer APP_USR-1"}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":["MLA111"]}`, rec.Body.String())
}

func TestProxy_RelaysPostBody(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"available_quantity":3}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"MLA111"}`))
	}))
	defer upstream.Close()

	h := handlers.NewProxyHandler(quietLogger(), handlers.WithProxyBaseURL(upstream.URL))

	rec := relay(t, h, `{
		"path": "/items/MLA111",
		"method": "POST",
		"body": {"available_quantity": 3}
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "MLA111")
}

func TestProxy_RelaysUpstreamErrorStatus(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"local_rate_limited"}`))
	}))
	defer upstream.Close()

	h := handlers.NewProxyHandler(quietLogger(), handlers.WithProxyBaseURL(upstream.URL))

	rec := relay(t, h, `{"path": "/orders/search", "method": "GET"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "local_rate_limited")
}

func TestProxy_RejectsBadPath(t *testing.T) {
	t.Parallel()

	h := handlers.NewProxyHandler(quietLogger())

	rec := relay(t, h, `{"path": "items/MLA111", "method": "GET"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "path must start with /")
}

func TestProxy_RejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	h := handlers.NewProxyHandler(quietLogger())

	rec := relay(t, h, `{"path": "/items/MLA111", "method": "TRACE"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "method not allowed")
}

func TestProxy_UpstreamUnreachable(t *testing.T) {
	t.Parallel()

	h := handlers.NewProxyHandler(
		quietLogger(),
		handlers.WithProxyBaseURL("http://127.0.0.1:1"),
	)

	rec := relay(t, h, `{"path": "/items/MLA111", "method": "GET"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream request failed")
}

func TestProxy_MethodDefaultsToGet(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	h := handlers.NewProxyHandler(quietLogger(), handlers.WithProxyBaseURL(upstream.URL))

	rec := relay(t, h, `{"path": "/items/MLA111"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
