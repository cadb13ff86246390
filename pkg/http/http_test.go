package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "FinDash/pkg/logger"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var out APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDataResponseWritesRealStatus(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, NotFoundError("missing").WithField("symbol")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, "Not Found", env.Message)
	assert.Equal(t, []interface{}{map[string]interface{}{
		"code": CodeNotFound, "message": "missing", "field": "symbol",
	}}, env.Data)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	err := UpstreamError("snapshot fetch failed").WithError(errors.New("timeout"))
	require.NoError(t, AppErrorResponse(c, fmt.Errorf("refresh: %w", err)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_UPSTREAM"`)
	assert.NotContains(t, rec.Body.String(), "timeout")

	c, rec = newContext(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_INTERNAL"`)
	assert.NotContains(t, rec.Body.String(), "plain")
}

type keyRequest struct {
	Key     string `json:"key" validate:"required,min=8"`
	Mode    string `json:"mode" default:"live" validate:"oneof=live mock"`
	Symbols string `json:"symbols" validate:"max=64,symbols"`
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := newContext(http.MethodPut, "/", `{"key":"abcdefgh","symbols":"aapl, BRK.B"}`)
	req := &keyRequest{}
	assert.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, "live", req.Mode)

	c, _ = newContext(http.MethodPut, "/", `{"key":"short"}`)
	errs := ReadAndValidateRequest(c, &keyRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_MIN", errs[0].Code)
	assert.Equal(t, "key", errs[0].Field)
	assert.Equal(t, "key must be at least 8 characters", errs[0].Message)
	assert.Equal(t, map[string]interface{}{"min": "8"}, errs[0].Params)

	c, _ = newContext(http.MethodPut, "/", `{"key":"abcdefgh","mode":"paper","symbols":"AAPL,$$$"}`)
	errs = ReadAndValidateRequest(c, &keyRequest{})
	require.Len(t, errs, 2)
	assert.Equal(t, "mode must be one of: live, mock", errs[0].Message)
	assert.Equal(t, "ERR_SYMBOLS", errs[1].Code)

	c, _ = newContext(http.MethodPut, "/", `{"key":`)
	errs = ReadAndValidateRequest(c, &keyRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestQueryHelpers(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/?limit=25&reload=true&bad=x", "")
	assert.Equal(t, 25, QueryInt(c, "limit", 10))
	assert.Equal(t, 10, QueryInt(c, "bad", 10))
	assert.Equal(t, 10, QueryInt(c, "missing", 10))
	assert.True(t, QueryBool(c, "reload"))
	assert.False(t, QueryBool(c, "bad"))
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer srv.Close()

	var body []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &body)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTeapot, se.Code)
	assert.Equal(t, "nope", se.Body)
}

func TestClientErrorsHideQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u := srv.URL
	srv.Close()

	err := NewClient(WithTimeout(time.Second)).SendAndParse(context.Background(), &RequestOptions{
		URL:   u + "/quote",
		Query: url.Values{"token": {"secret"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET "+u+"/quote")
	assert.NotContains(t, err.Error(), "secret")
}

func TestClientDecodesJSONAndSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_, _ = fmt.Fprintf(w, `{"echo":%q}`, in["symbol"])
	}))
	defer srv.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]string{"symbol": "AAPL"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", out.Echo)
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
}

func TestServerWiring(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(applogger.Nop(), []Handler{pingHandler{}, nil}, WithMetrics(reg, "/metrics"), WithCORS(true, nil))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", decodeEnvelope(t, rec).Data)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `findash_http_requests_total{method="GET",route="/ping",status="200"} 1`)

	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}

func TestServerPreflightRequestIDAndBodyLimit(t *testing.T) {
	s := NewServer(applogger.Nop(), []Handler{pingHandler{}},
		WithCORS(true, []string{"http://localhost:3000"}),
		WithBodyLimit("1K"),
		WithHost("127.0.0.1"), WithPort(9090),
	)

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	big := strings.NewReader(strings.Repeat("x", 4096))
	req = httptest.NewRequest(http.MethodPut, "/ping", big)
	req.Header.Set(echo.HeaderContentLength, "4096")
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Equal(t, "127.0.0.1:9090", s.Addr())
}
