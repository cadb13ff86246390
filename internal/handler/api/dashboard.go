package api

import (
	"github.com/labstack/echo/v4"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/usecase"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
)

// DashboardHandler serves the dashboard state, the raw snapshot, manual
// refreshes and the archived market history.
type DashboardHandler struct {
	logger  *xlogger.Logger
	loader  *usecase.SnapshotLoader
	history domrepo.MarketHistory
}

// NewDashboardHandler creates the handler. history may be nil when no
// queryable archive is configured.
func NewDashboardHandler(logger *xlogger.Logger, loader *usecase.SnapshotLoader, history domrepo.MarketHistory) *DashboardHandler {
	return &DashboardHandler{logger: logger, loader: loader, history: history}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.POST("/dashboard/refresh", h.Refresh)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/history", h.History)
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.loader.Current().Tab(models.Tab(req.Tab)))
}

func (h *DashboardHandler) Refresh(c echo.Context) error {
	state, err := h.loader.Refresh(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("snapshot refresh failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, state)
}

func (h *DashboardHandler) Snapshot(c echo.Context) error {
	snap := h.loader.Snapshot()
	if snap == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no snapshot loaded yet"))
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("history requires the clickhouse archive"))
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.history.RecentMarket(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("history unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
