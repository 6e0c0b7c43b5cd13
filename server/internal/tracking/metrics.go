// Package tracking records OpenTelemetry HTTP server metrics for the echo server.
package tracking

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "dbworkbench/http-server"

	metricRequestDuration = "http.server.request.duration"
	metricActiveRequests  = "http.server.active_requests"
)

// Bucket boundaries in seconds recommended by the OTel HTTP semantic conventions.
var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

var (
	initOnce       sync.Once
	durationHist   metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
)

func initInstruments() {
	meter := otel.Meter(meterName)

	var err error
	durationHist, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		otel.Handle(err)
	}

	activeRequests, err = meter.Int64UpDownCounter(
		metricActiveRequests,
		metric.WithDescription("Number of active HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// HTTPMetrics returns middleware recording request duration and in-flight requests.
// Requests for which skip returns true are not measured.
func HTTPMetrics(skip func(c echo.Context) bool) echo.MiddlewareFunc {
	initOnce.Do(initInstruments)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			req := c.Request()
			ctx := req.Context()
			base := []attribute.KeyValue{
				attribute.String("http.request.method", req.Method),
				attribute.String("url.scheme", scheme(c)),
			}

			addActive(ctx, 1, base)
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)
			addActive(ctx, -1, base)

			attrs := append(base,
				attribute.Int("http.response.status_code", c.Response().Status),
				attribute.String("http.route", route(c.Path())),
			)
			if errType := ErrorType(c.Response().Status, err); errType != "" {
				attrs = append(attrs, attribute.String("error.type", errType))
			}
			if durationHist != nil {
				durationHist.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
			}

			return err
		}
	}
}

func addActive(ctx context.Context, delta int64, attrs []attribute.KeyValue) {
	if activeRequests != nil {
		activeRequests.Add(ctx, delta, metric.WithAttributes(attrs...))
	}
}

func route(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}

func scheme(c echo.Context) string {
	if proto := c.Request().Header.Get(echo.HeaderXForwardedProto); proto != "" {
		return proto
	}
	if c.Request().TLS != nil {
		return "https"
	}
	return "http"
}

// ErrorType classifies a finished request: the status code for 4xx and 5xx,
// "handler_error" when a handler failed without setting an error status, else "".
func ErrorType(status int, err error) string {
	if status >= 400 {
		return strconv.Itoa(status)
	}
	if err != nil {
		return "handler_error"
	}
	return ""
}
