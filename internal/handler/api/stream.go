package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinDash/internal/usecase"
	xlogger "FinDash/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// StreamHandler pushes every new DashboardState over a websocket. The
// current state is sent right after the upgrade.
type StreamHandler struct {
	logger   *xlogger.Logger
	loader   *usecase.SnapshotLoader
	upgrader websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, loader *usecase.SnapshotLoader) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		loader: loader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/dashboard", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	updates, unsubscribe := h.loader.Subscribe()
	defer unsubscribe()

	remote := c.RealIP()
	h.logger.Debug("websocket client connected", xlogger.String("remote", remote))

	// The reader only drains control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}
	if err := write(h.loader.Current()); err != nil {
		return nil
	}

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return nil
			}
			if err := write(state); err != nil {
				h.logger.Debug("websocket write failed", xlogger.String("remote", remote), xlogger.Error(err))
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		case <-closed:
			h.logger.Debug("websocket client disconnected", xlogger.String("remote", remote))
			return nil
		}
	}
}
