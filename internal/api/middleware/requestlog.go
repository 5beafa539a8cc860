package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// healthLogPaths are probe paths whose repeated successes are suppressed
// from the request log. Failures on these paths are always logged.
var healthLogPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs each request with structured
// fields. A request ID is generated when the client did not supply one, and
// is echoed back in the response header.
//
// Probe paths log their first success and every failure; back-to-back
// successes are suppressed so kubelet polling does not flood the log.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var mu sync.Mutex
	successLogged := make(map[string]bool)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			fields := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}

			if _, probe := healthLogPaths[path]; probe {
				mu.Lock()
				defer mu.Unlock()

				if status >= http.StatusBadRequest {
					successLogged[path] = false
					log.Warn("request", fields...)
					return err
				}
				if successLogged[path] {
					return err
				}
				successLogged[path] = true
			}

			log.Info("request", fields...)

			return err
		}
	}
}
