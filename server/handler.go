package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/dbworkbench/config"
)

// IAPIError defines the interface for API errors with structured information.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// APIResponse represents the standardized API response format.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse represents the error portion of an API response.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HandlerFunc is a typed handler: it receives the bound and validated request
// and returns the response payload or an API error.
type HandlerFunc[T any, R any] func(request T, ctx HandlerContext) (R, IAPIError)

// HandlerContext gives handlers access to the echo context and configuration.
type HandlerContext struct {
	Echo   echo.Context
	Config *config.Config
}

// Context returns the request context.
func (h HandlerContext) Context() context.Context {
	return h.Echo.Request().Context()
}

// WrapHandler adapts a typed handler to echo. It binds the JSON body, validates
// the request and writes the response envelope.
func WrapHandler[T any, R any](handlerFunc HandlerFunc[T, R], cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request T

		if err := bindRequest(c, &request); err != nil {
			return formatErrorResponse(c, NewBadRequestError("Invalid request data").WithDetails("error", err.Error()), cfg)
		}

		if err := c.Validate(&request); err != nil {
			vErr := NewValidationFailedError("Request validation failed")
			var ve *ValidationError
			if errors.As(err, &ve) {
				_ = vErr.WithDetails("validationErrors", ve.Errors)
			} else {
				_ = vErr.WithDetails("error", err.Error())
			}
			return formatErrorResponse(c, vErr, cfg)
		}

		response, apiErr := handlerFunc(request, HandlerContext{Echo: c, Config: cfg})
		if apiErr != nil {
			return formatErrorResponse(c, apiErr, cfg)
		}

		return formatSuccessResponse(c, http.StatusOK, response)
	}
}

// GET registers a typed GET handler on g.
func GET[T any, R any](g *echo.Group, path string, handler HandlerFunc[T, R], cfg *config.Config) {
	g.GET(path, WrapHandler(handler, cfg))
}

// POST registers a typed POST handler on g.
func POST[T any, R any](g *echo.Group, path string, handler HandlerFunc[T, R], cfg *config.Config) {
	g.POST(path, WrapHandler(handler, cfg))
}

// bindRequest decodes a JSON body (any +json media type) into target.
// Requests without a JSON body leave target at its zero value.
func bindRequest(c echo.Context, target any) error {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if ct == "" {
		return nil
	}
	if mt, _, _ := mime.ParseMediaType(ct); mt == echo.MIMEApplicationJSON || strings.HasSuffix(mt, "+json") {
		if err := (&echo.DefaultBinder{}).BindBody(c, target); err != nil {
			return fmt.Errorf("failed to bind JSON body: %w", err)
		}
	}
	return nil
}

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"traceId":   getTraceID(c),
	}
}

func formatSuccessResponse(c echo.Context, status int, data any) error {
	injectTraceParent(c)
	return c.JSON(status, APIResponse{Data: data, Meta: responseMeta(c)})
}

// formatErrorResponse writes apiErr in the envelope. Details are only exposed in development.
func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	if cfg != nil && isDevelopmentEnv(cfg.App.Env) {
		errorResp.Details = apiErr.Details()
	}

	injectTraceParent(c)
	return c.JSON(apiErr.HTTPStatus(), APIResponse{Error: errorResp, Meta: responseMeta(c)})
}

// getTraceID prefers the active span's trace ID, then the request ID, and
// finally generates one so every envelope carries a correlation value.
func getTraceID(c echo.Context) string {
	if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if requestID := safeGetRequestID(c); requestID != "" {
		return requestID
	}
	newID := uuid.New().String()
	c.Response().Header().Set(echo.HeaderXRequestID, newID)
	return newID
}

// injectTraceParent writes the W3C traceparent of the active span into the response headers.
func injectTraceParent(c echo.Context) {
	propagation.TraceContext{}.Inject(c.Request().Context(), propagation.HeaderCarrier(c.Response().Header()))
}
