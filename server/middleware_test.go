package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbworkbench/logger"
)

func newEcho(cfgEnv string) *echo.Echo {
	cfg := testConfig()
	cfg.App.Env = cfgEnv
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, logger.Nop())
	}
	return e
}

func TestRateLimitDisabled(t *testing.T) {
	e := newEcho("development")
	e.Use(RateLimit(0))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for range 10 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	e := newEcho("development")
	e.Use(RateLimit(1))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 4)
	for range 4 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), CodeTooManyRequests)
		}
	}

	// Burst is twice the rate
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes[2:], http.StatusTooManyRequests)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	e := newEcho("development")
	e.Use(Timeout(20 * time.Millisecond))
	e.GET("/slow", func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})
	e.GET("/fast", func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.True(t, ok)
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeTimeout)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimeoutDisabled(t *testing.T) {
	e := newEcho("development")
	e.Use(Timeout(0))
	e.GET("/", func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.False(t, ok)
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimeoutRejectsCancelledRequest(t *testing.T) {
	e := newEcho("development")
	called := false
	e.Use(Timeout(time.Second))
	e.GET("/", func(c echo.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody).WithContext(ctx))

	assert.False(t, called)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		handler       echo.HandlerFunc
		expectedLevel string
		expectedCode  string
		expectedState int
	}{
		{
			name:          "success",
			handler:       func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			expectedLevel: "info",
			expectedCode:  "INFO",
			expectedState: http.StatusOK,
		},
		{
			name:          "client_error",
			handler:       func(echo.Context) error { return NewBadRequestError("bad spec") },
			expectedLevel: "warn",
			expectedCode:  "WARN",
			expectedState: http.StatusBadRequest,
		},
		{
			name:          "server_error",
			handler:       func(echo.Context) error { return errors.New("boom") },
			expectedLevel: "error",
			expectedCode:  "ERROR",
			expectedState: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, "debug", false, nil)
			e := newEcho("development")
			e.Use(Logger(log, "/health"))
			e.GET("/api/dialects", tt.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dialects", http.NoBody))
			require.Equal(t, tt.expectedState, rec.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, tt.expectedCode, entry["result_code"])
			assert.Equal(t, "/api/dialects", entry["http.route"])
			assert.Equal(t, float64(tt.expectedState), entry["http.response.status_code"])
		})
	}
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false, nil)
	e := newEcho("development")
	e.Use(Logger(log, "/health"))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
}

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		latency    time.Duration
		err        error
		level      string
		resultCode string
	}{
		{name: "ok", status: 200, latency: time.Millisecond, level: "info", resultCode: "INFO"},
		{name: "slow", status: 200, latency: 2 * time.Second, level: "info", resultCode: "WARN"},
		{name: "client_error", status: 404, level: "warn", resultCode: "WARN"},
		{name: "server_error", status: 503, level: "error", resultCode: "ERROR"},
		{name: "error_without_status", err: errors.New("boom"), level: "error", resultCode: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code := determineSeverity(tt.status, tt.latency, time.Second, tt.err)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.resultCode, code)
		})
	}
}

func TestCreateActionMessage(t *testing.T) {
	assert.Equal(t, "POST /api/queries/run completed in 1.5s with status 4xx",
		createActionMessage(http.MethodPost, runPath, 1500*time.Millisecond, http.StatusUnprocessableEntity))
}
