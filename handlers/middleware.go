package handlers

import (
	"log/slog"
	"time"

	"robot-manager/metrics"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs each request and records its latency.
// Errors are rendered here so the logged status is the one sent.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	logger = logger.With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(req.Method, route, status, elapsed)

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			logger.Log(req.Context(), level, "HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"route", route,
				"status", status,
				"latency_ms", elapsed.Milliseconds(),
				"remote_ip", c.RealIP())
			return nil
		}
	}
}
