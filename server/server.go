// Package server exposes the query workbench over HTTP using echo.
// It includes middleware setup, the response envelope, health probes and the query routes.
package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
	"github.com/gaborage/dbworkbench/workbench"
)

// Deps are the collaborators the query routes need. DB may be nil, in which
// case queries can be compiled but not run.
type Deps struct {
	Compiler *workbench.Compiler
	Runner   *workbench.Runner
	DB       types.Interface
}

// Server represents an HTTP server instance with Echo framework.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	logger    logger.Logger
	db        types.Interface
	basePath  string
	readyPath string
}

// normalizeBasePath ensures the base path starts with "/" and has no trailing "/".
// An empty base path or "/" means no prefix.
func normalizeBasePath(basePath string) string {
	if basePath == "" || basePath == "/" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/")
}

// normalizeRoutePath returns route with a leading "/", or defaultRoute when empty.
func normalizeRoutePath(route, defaultRoute string) string {
	if route == "" {
		route = defaultRoute
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// New creates the server with middlewares, the error handler, probes and query routes.
// Probes are mounted at the root; query routes live under the configured base path.
func New(cfg *config.Config, log logger.Logger, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}
	e.Validator = NewValidator()

	s := &Server{
		echo:      e,
		cfg:       cfg,
		logger:    log,
		db:        deps.DB,
		basePath:  normalizeBasePath(cfg.Server.Path.Base),
		readyPath: normalizeRoutePath(cfg.Server.Path.Ready, "/ready"),
	}
	healthPath := normalizeRoutePath(cfg.Server.Path.Health, "/health")

	SetupMiddlewares(e, log, cfg, healthPath, s.readyPath)

	e.GET(healthPath, s.healthCheck)
	e.GET(s.readyPath, s.readyCheck)

	registerQueryRoutes(e.Group(s.basePath), cfg, log, deps)

	log.Debug().
		Str("base_path", s.basePath).
		Str("health_path", healthPath).
		Str("ready_path", s.readyPath).
		Msg("Server paths configured")

	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins accepting requests and blocks until the server stops.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  orDefault(s.cfg.Server.Timeout.Read, DefaultReadTimeout),
		WriteTimeout: orDefault(s.cfg.Server.Timeout.Write, DefaultWriteTimeout),
		IdleTimeout:  DefaultIdleTimeout,
	}

	return s.echo.StartServer(server)
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// readyCheck pings the database when one is configured.
func (s *Server) readyCheck(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ready",
			"time":     time.Now().Unix(),
			"database": "disabled",
		})
	}

	if err := s.db.Health(c.Request().Context()); err != nil {
		s.logger.WithContext(c.Request().Context()).Warn().Err(err).Msg("Readiness check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":   "not ready",
			"database": "unhealthy",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ready",
		"time":     time.Now().Unix(),
		"database": "healthy",
		"dialect":  s.db.Dialect(),
		"db_stats": s.db.Stats(),
	})
}

// customErrorHandler renders every unhandled error as an APIResponse envelope.
func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	if goerrors.Is(err, context.DeadlineExceeded) {
		_ = formatErrorResponse(c, NewTimeoutError(""), cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error")
		if !isDevelopmentEnv(cfg.App.Env) {
			msg = "An error occurred while processing your request"
		}
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if isDevelopmentEnv(cfg.App.Env) {
		_ = base.WithDetails("error", err.Error())
	}
	_ = formatErrorResponse(c, base, cfg)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return CodeTimeout
	}
	if status < http.StatusInternalServerError {
		return CodeBadRequest
	}
	return CodeInternal
}
