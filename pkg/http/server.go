package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FinDash/pkg/http/middleware"
	applogger "FinDash/pkg/logger"
)

// Handler mounts a group of routes.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type ServerOption func(*ServerConfig)

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// BodyLimit caps request bodies, in echo's size notation ("64K").
	BodyLimit string
	// CORS answers browser preflights for AllowOrigins; none means any.
	CORS         bool
	AllowOrigins []string
	// Registry, when set, enables request metrics; MetricsPath serves it.
	Registry      *prometheus.Registry
	MetricsPath   string
	SlowThreshold time.Duration
}

// Server is the Echo instance plus its lifecycle.
type Server struct {
	echo  *echo.Echo
	cfg   ServerConfig
	log   *applogger.Logger
	errCh chan error
}

func NewServer(l *applogger.Logger, handlers []Handler, opts ...ServerOption) *Server {
	cfg := ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		BodyLimit:       "64K",
		CORS:            true,
		MetricsPath:     "/metrics",
		SlowThreshold:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{echo: echo.New(), cfg: cfg, log: l, errCh: make(chan error, 1)}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = cfg.ReadTimeout
	s.echo.Server.WriteTimeout = cfg.WriteTimeout

	s.useMiddleware()
	for _, h := range handlers {
		if h != nil {
			h.RegisterRoutes(s.echo)
		}
	}
	if cfg.Registry != nil && cfg.MetricsPath != "" {
		s.echo.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}
	return s
}

// useMiddleware installs the chain, outermost first: panic recovery,
// request id, access log, metrics, CORS, body limit.
func (s *Server) useMiddleware() {
	s.echo.Use(middleware.Recover(s.log))
	s.echo.Use(echomw.RequestID())
	s.echo.Use(middleware.RequestLogging(s.log))
	if s.cfg.Registry != nil {
		s.echo.Use(middleware.NewHTTPMetrics(s.cfg.Registry).Middleware(s.log, s.cfg.SlowThreshold))
	}
	if s.cfg.CORS {
		s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: s.cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	if s.cfg.BodyLimit != "" {
		s.echo.Use(echomw.BodyLimit(s.cfg.BodyLimit))
	}
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start listens in the background; a listen failure arrives on Errors.
func (s *Server) Start() error {
	addr := s.Addr()
	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", applogger.Error(err))
			s.errCh <- err
		}
	}()
	return nil
}

func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop drains open connections until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) ShutdownTimeout() time.Duration {
	return s.cfg.ShutdownTimeout
}

// Echo exposes the router, mainly for tests driving ServeHTTP.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		if host != "" {
			c.Host = host
		}
	}
}

func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

// WithTimeouts sets the read, write and shutdown budgets. Zero keeps the
// default.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
		if shutdown > 0 {
			c.ShutdownTimeout = shutdown
		}
	}
}

func WithBodyLimit(limit string) ServerOption {
	return func(c *ServerConfig) { c.BodyLimit = limit }
}

func WithCORS(enabled bool, origins []string) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = enabled
		c.AllowOrigins = origins
	}
}

// WithMetrics records request metrics on reg and serves reg at path. An
// empty path records without serving.
func WithMetrics(reg *prometheus.Registry, path string) ServerOption {
	return func(c *ServerConfig) {
		c.Registry = reg
		c.MetricsPath = path
	}
}
