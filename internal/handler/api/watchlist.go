package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"FinDash/internal/domain/models"
	"FinDash/internal/render"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
	"FinDash/pkg/util"
)

const chartTTL = 10 * time.Minute

// WatchlistHandler serves the legacy watchlist and its sparkline charts.
type WatchlistHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.WatchlistService
	limiter *ratelimit.Limiter
	charts  cache.Service
}

// NewWatchlistHandler creates the handler. A nil limiter leaves reloads
// unlimited; a nil cache renders every chart request.
func NewWatchlistHandler(logger *xlogger.Logger, svc *usecase.WatchlistService, limiter *ratelimit.Limiter, charts cache.Service) *WatchlistHandler {
	return &WatchlistHandler{logger: logger, svc: svc, limiter: limiter, charts: charts}
}

func (h *WatchlistHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware(func(c echo.Context) bool {
			return !xhttp.QueryBool(c, "reload")
		}))
	}
	e.GET("/api/watchlist", h.Watchlist, mw...)
	e.GET("/watchlist/chart/:symbol", h.Chart)
}

func (h *WatchlistHandler) Watchlist(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	wl := h.svc.Current()
	if req.Reload || wl == nil {
		wl = h.svc.Load(c.Request().Context(), util.SplitSymbols(req.Symbols))
	}
	return xhttp.SuccessResponse(c, wl)
}

func (h *WatchlistHandler) Chart(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	q, ok := h.svc.Quote(symbol)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s is not on the watchlist", symbol))
	}

	key := h.chartKey(symbol)
	if h.charts != nil {
		if html, err := h.charts.Get(c.Request().Context(), key); err == nil {
			return c.HTML(http.StatusOK, html)
		}
	}

	html, err := render.Sparkline(q)
	if errors.Is(err, render.ErrNoHistory) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s has no price history", symbol))
	}
	if err != nil {
		h.logger.Error("sparkline render error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.charts != nil {
		if err := h.charts.Set(c.Request().Context(), key, string(html), chartTTL); err != nil {
			h.logger.Warn("chart cache write failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		}
	}
	return c.HTMLBlob(http.StatusOK, html)
}

// chartKey changes with every watchlist load, so a reload never serves a
// stale chart.
func (h *WatchlistHandler) chartKey(symbol string) string {
	var loaded int64
	if wl := h.svc.Current(); wl != nil {
		loaded = wl.LoadedAt.UnixNano()
	}
	return fmt.Sprintf("chart:%s:%d", symbol, loaded)
}
