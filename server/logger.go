package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/dbworkbench/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths are not logged, typically the health and readiness probes.
	SkipPaths []string

	// SlowRequestThreshold marks slower requests with result_code WARN. Zero disables it.
	SlowRequestThreshold time.Duration
}

// Logger returns the request logging middleware with a one second slow threshold.
func Logger(log logger.Logger, skipPaths ...string) echo.MiddlewareFunc {
	return LoggerWithConfig(log, LoggerConfig{
		SkipPaths:            skipPaths,
		SlowRequestThreshold: time.Second,
	})
}

// LoggerWithConfig emits one summary log per request using OpenTelemetry HTTP
// attribute names. 5xx responses log at error, 4xx at warn and the rest at info.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if _, ok := skip[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the envelope so the logged status is final.
				c.Error(err)
			}
			logRequest(c, log, cfg, time.Since(start), err)
			return nil
		}
	}
}

func logRequest(c echo.Context, log logger.Logger, cfg LoggerConfig, latency time.Duration, err error) {
	req := c.Request()
	status := c.Response().Status
	level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)

	event := createLogEvent(log.WithContext(req.Context()), level)
	if err != nil {
		event = event.Err(err)
	}

	event.
		Str("request_id", safeGetRequestID(c)).
		Str("http.request.method", req.Method).
		Int("http.response.status_code", status).
		Int64("http.server.request.duration", latency.Nanoseconds()).
		Str("url.path", req.URL.Path).
		Str("http.route", c.Path()).
		Str("client.address", c.RealIP()).
		Str("user_agent.original", req.UserAgent()).
		Str("result_code", resultCode).
		Msg(createActionMessage(req.Method, req.URL.Path, latency, status))
}

// determineSeverity returns the log level and result_code for a finished request.
func determineSeverity(status int, latency, threshold time.Duration, err error) (level, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		// Slow but successful requests stay at info so only the result code flags them.
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "POST /api/queries/compile completed in 3ms with status 2xx".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return method + " " + path + " completed in " + latency.String() + " with status " + strconv.Itoa(status/100) + "xx"
}
