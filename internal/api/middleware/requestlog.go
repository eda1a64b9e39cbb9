package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// probePaths are logged only on their first success or on any failure.
// Kubernetes probes every few seconds; logging each one buries real traffic.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs every request with structured
// fields. A request ID is generated when the caller does not supply one and
// is echoed back in the response header.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var mu sync.Mutex
	lastProbeOK := map[string]bool{}

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

			logFn := log.Info
			if _, probe := probePaths[path]; probe {
				ok := status >= 200 && status < 300
				mu.Lock()
				suppress := ok && lastProbeOK[path]
				lastProbeOK[path] = ok
				mu.Unlock()
				if suppress {
					return err
				}
				if !ok {
					logFn = log.Warn
				}
			}

			logFn("request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
