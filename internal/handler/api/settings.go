package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
)

// SettingsHandler stores the quote API key. The quote mode is fixed at
// startup, so a stored key takes effect after a restart, provided the
// store outlives the process.
type SettingsHandler struct {
	logger     *xlogger.Logger
	store      domrepo.CredentialStore
	mode       string
	persistent bool
}

// NewSettingsHandler creates the handler. persistent reports whether the
// store keeps keys across restarts.
func NewSettingsHandler(logger *xlogger.Logger, store domrepo.CredentialStore, mode string, persistent bool) *SettingsHandler {
	return &SettingsHandler{logger: logger, store: store, mode: mode, persistent: persistent}
}

func (h *SettingsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/settings")
	g.GET("/api-key", h.GetKey)
	g.PUT("/api-key", h.PutKey)
}

func (h *SettingsHandler) GetKey(c echo.Context) error {
	_, err := h.store.Get(c.Request().Context())
	switch {
	case errors.Is(err, domrepo.ErrNoCredential):
		return xhttp.SuccessResponse(c, models.APIKeyStatus{Mode: h.mode, Persisted: h.persistent})
	case err != nil:
		h.logger.Error("credential read error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, models.APIKeyStatus{Configured: true, Mode: h.mode, Persisted: h.persistent})
}

func (h *SettingsHandler) PutKey(c echo.Context) error {
	req := &models.APIKeyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.store.Set(c.Request().Context(), req.Key); err != nil {
		h.logger.Error("credential write error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("api key could not be stored").WithField("key"))
	}
	if !h.persistent {
		h.logger.Warn("api key stored in memory only, a restart will discard it")
	} else {
		h.logger.Info("api key stored", xlogger.String("mode", h.mode))
	}
	return xhttp.SuccessResponse(c, models.APIKeyStatus{
		Configured:      true,
		Mode:            h.mode,
		RestartRequired: h.persistent,
		Persisted:       h.persistent,
	})
}
