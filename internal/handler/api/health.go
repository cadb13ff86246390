package api

import (
	"github.com/labstack/echo/v4"

	"FinDash/internal/domain/models"
	"FinDash/internal/usecase"
	xhttp "FinDash/pkg/http"
)

type HealthHandler struct {
	loader    *usecase.SnapshotLoader
	quoteMode string
	archive   string
}

func NewHealthHandler(loader *usecase.SnapshotLoader, quoteMode, archive string) *HealthHandler {
	return &HealthHandler{loader: loader, quoteMode: quoteMode, archive: archive}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.Health{
		Status:    "ok",
		QuoteMode: h.quoteMode,
		Source:    h.loader.Source(),
		Revision:  h.loader.Current().Revision,
		Archive:   h.archive,
	})
}
