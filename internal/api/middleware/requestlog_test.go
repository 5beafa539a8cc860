package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestLogHarness struct {
	buf *bytes.Buffer
	e   *echo.Echo
	mw  echo.MiddlewareFunc
}

func newRequestLogHarness() *requestLogHarness {
	var buf bytes.Buffer
	return &requestLogHarness{
		buf: &buf,
		e:   echo.New(),
		mw:  RequestLog(slog.New(slog.NewTextHandler(&buf, nil))),
	}
}

func (h *requestLogHarness) hit(t *testing.T, handler echo.HandlerFunc, path string, hdr map[string]string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	require.NoError(t, h.mw(handler)(c))
	return rec, c
}

func status(code int) echo.HandlerFunc {
	return func(c echo.Context) error { return c.NoContent(code) }
}

func TestRequestLog_FieldsAndGeneratedID(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()
	rec, c := h.hit(t, status(http.StatusOK), "/api/v1/accounts/user-1/listings", nil)

	out := h.buf.String()
	for _, field := range []string{
		"method=GET",
		"path=/api/v1/accounts/user-1/listings",
		"status=200",
		"duration_ms=",
		"request_id=",
	} {
		assert.Contains(t, out, field)
	}
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.NotEmpty(t, c.Get("request_id"))
}

func TestRequestLog_ProvidedRequestID(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()
	rec, _ := h.hit(t, status(http.StatusOK), "/test",
		map[string]string{requestIDHeader: "custom-req-id-123"})

	assert.Contains(t, h.buf.String(), "request_id=custom-req-id-123")
	assert.Equal(t, "custom-req-id-123", rec.Header().Get(requestIDHeader))
}

func TestRequestLog_HealthzSuccessLoggedOnce(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()

	h.hit(t, status(http.StatusOK), "/healthz", nil)
	assert.Contains(t, h.buf.String(), "path=/healthz")
	assert.Contains(t, h.buf.String(), "status=200")

	after := h.buf.Len()
	h.hit(t, status(http.StatusOK), "/healthz", nil)
	h.hit(t, status(http.StatusOK), "/healthz", nil)
	assert.Equal(t, after, h.buf.Len(),
		"repeat successful healthz probes should not produce log output")
}

func TestRequestLog_ProbeFailureAlwaysLogged(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()

	h.hit(t, status(http.StatusServiceUnavailable), "/readyz", nil)
	out := h.buf.String()
	assert.Contains(t, out, "path=/readyz")
	assert.Contains(t, out, "status=503")
	assert.Contains(t, out, "level=WARN")

	after := h.buf.Len()
	h.hit(t, status(http.StatusServiceUnavailable), "/readyz", nil)
	assert.Greater(t, h.buf.Len(), after, "failed readyz should always be logged")
}

func TestRequestLog_FailureAfterSuppressedSuccesses(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()
	calls := 0
	handler := func(c echo.Context) error {
		calls++
		if calls <= 2 {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	}

	h.hit(t, handler, "/readyz", nil)
	assert.Contains(t, h.buf.String(), "status=200")

	after := h.buf.Len()
	h.hit(t, handler, "/readyz", nil)
	assert.Equal(t, after, h.buf.Len(), "second successful readyz should be suppressed")

	h.hit(t, handler, "/readyz", nil)
	assert.Greater(t, h.buf.Len(), after,
		"failure after suppressed successes should still be logged")
	assert.Contains(t, h.buf.String(), "status=503")
	assert.Contains(t, h.buf.String(), "level=WARN")
}

func TestRequestLog_NonProbePathsAlwaysLogged(t *testing.T) {
	t.Parallel()

	h := newRequestLogHarness()
	h.hit(t, status(http.StatusOK), "/api/v1/accounts/user-1/sales", nil)

	after := h.buf.Len()
	assert.Positive(t, after)

	h.hit(t, status(http.StatusOK), "/api/v1/accounts/user-1/sales", nil)
	assert.Greater(t, h.buf.Len(), after, "non-probe paths are logged every time")
}
