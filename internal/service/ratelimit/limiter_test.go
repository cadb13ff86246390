package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestPerMinuteBurst(t *testing.T) {
	l := PerMinute(3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("ip"), "request %d", i)
	}
	assert.False(t, l.Allow("ip"))
	assert.True(t, l.Allow("other"), "keys are independent")
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	l := PerMinute(1)
	skip := func(c echo.Context) bool { return c.QueryParam("reload") != "true" }
	e.GET("/w", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, l.Middleware(skip))
	e.GET("/v", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, l.Middleware(nil))

	var last *httptest.ResponseRecorder
	do := func(target, ip string) int {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		last = httptest.NewRecorder()
		e.ServeHTTP(last, req)
		return last.Code
	}

	assert.Equal(t, http.StatusOK, do("/w?reload=true", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/w?reload=true", "10.0.0.1"))
	assert.Contains(t, last.Body.String(), "ERR_RATE_LIMITED")
	assert.Equal(t, http.StatusOK, do("/w", "10.0.0.1"), "skipped requests are not limited")
	assert.Equal(t, http.StatusOK, do("/w?reload=true", "10.0.0.2"), "clients are independent")
	assert.Equal(t, http.StatusOK, do("/v", "10.0.0.1"), "routes are independent")
}
