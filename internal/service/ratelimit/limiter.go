// Package ratelimit throttles expensive endpoints per client.
package ratelimit

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	xhttp "FinDash/pkg/http"
)

// Limiter keeps one token bucket per client and route in memory. Idle
// buckets are dropped after three minutes.
type Limiter struct {
	store *echomw.RateLimiterMemoryStore
}

// New allows burst requests at once, refilling at perSecond.
func New(burst int, perSecond float64) *Limiter {
	return &Limiter{
		store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
	}
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n int) *Limiter {
	return New(n, float64(n)/60)
}

// Allow consumes a token for key.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.store.Allow(key)
	return ok
}

// Middleware limits by client IP and route, answering 429 with an
// ERR_RATE_LIMITED envelope. Requests for which skip returns true pass
// without spending a token.
func (l *Limiter) Middleware(skip func(echo.Context) bool) echo.MiddlewareFunc {
	if skip == nil {
		skip = echomw.DefaultSkipper
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: skip,
		Store:   l.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP() + ":" + c.Path(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return xhttp.AppErrorResponse(c, xhttp.RateLimitedError("too many requests, try again later"))
		},
	})
}
