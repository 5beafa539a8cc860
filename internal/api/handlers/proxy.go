package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultProxyBaseURL = "https://api.mercadolibre.com"
	defaultProxyTimeout = 30 * time.Second
	maxProxyBodySize    = 4 << 20
)

// allowedProxyMethods limits relayed requests to plain REST verbs.
var allowedProxyMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// ProxyHandler relays browser requests to the MercadoLibre API so the
// dashboard can call it same-origin. The request names the remote path,
// method, headers, and body; status and body come back verbatim.
type ProxyHandler struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// ProxyOption configures a ProxyHandler.
type ProxyOption func(*ProxyHandler)

// WithProxyBaseURL overrides the upstream API base URL.
func WithProxyBaseURL(u string) ProxyOption {
	return func(h *ProxyHandler) {
		h.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithProxyHTTPClient overrides the upstream HTTP client.
func WithProxyHTTPClient(c *http.Client) ProxyOption {
	return func(h *ProxyHandler) {
		h.client = c
	}
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(log *slog.Logger, opts ...ProxyOption) *ProxyHandler {
	h := &ProxyHandler{
		baseURL: defaultProxyBaseURL,
		client:  &http.Client{Timeout: defaultProxyTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type proxyRequest struct {
	Path    string            `json:"path"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

// Relay forwards one request to the MercadoLibre API and returns the
// upstream status and body unchanged.
func (h *ProxyHandler) Relay(c echo.Context) error {
	var req proxyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid proxy request",
		})
	}

	if !strings.HasPrefix(req.Path, "/") {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path must start with /",
		})
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if _, ok := allowedProxyMethods[method]; !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "method not allowed: " + method,
		})
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	upstream, err := http.NewRequestWithContext(
		c.Request().Context(), method, h.baseURL+req.Path, body,
	)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "building upstream request: " + err.Error(),
		})
	}

	for k, v := range req.Headers {
		if strings.EqualFold(k, "Host") {
			continue
		}
		upstream.Header.Set(k, v)
	}
	if body != nil && upstream.Header.Get(echo.HeaderContentType) == "" {
		upstream.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	resp, err := h.client.Do(upstream)
	if err != nil {
		h.log.Error("proxy upstream request failed",
			"method", method, "path", req.Path, "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream request failed",
		})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBodySize))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "reading upstream response failed",
		})
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}

	return c.Blob(resp.StatusCode, contentType, respBody)
}
