package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "FinDash/pkg/logger"
)

// RequestLogging logs one line per request: debug for 2xx/3xx, warn for
// 4xx, error for 5xx.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let echo write the error so the logged status is final.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			switch {
			case status >= 500:
				l.Error("http request", fields...)
			case status >= 400:
				l.Warn("http request", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
