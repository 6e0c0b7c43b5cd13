package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/logger"
	"github.com/gaborage/dbworkbench/server/internal/tracking"
)

// SetupMiddlewares registers the middleware chain. Probe paths are excluded
// from tracing, metrics and request logs.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config, probePaths ...string) {
	isProbe := func(c echo.Context) bool {
		for _, p := range probePaths {
			if c.Path() == p {
				return true
			}
		}
		return false
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(otelecho.Middleware(cfg.App.Name, otelecho.WithSkipper(isProbe)))

	e.Use(tracking.HTTPMetrics(isProbe))

	e.Use(Logger(log, probePaths...))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.WithContext(c.Request().Context()).Error().
				Err(err).
				Str("request_id", safeGetRequestID(c)).
				Str("stack", string(stack)).
				Msg("Panic recovered")
			return fmt.Errorf("panic recovered: %w", err)
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'none'",
	}))

	e.Use(middleware.BodyLimit(DefaultBodyLimit))

	e.Use(Timeout(cfg.Server.Timeout.Middleware))

	e.Use(RateLimit(cfg.App.Rate.Limit))

	e.Use(Timing())
}
