package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	dbMeterName = "dbworkbench/database"

	metricDBCalls    = "db.client.calls"
	metricDBDuration = "db.client.operation.duration"
)

var (
	meterOnce sync.Once

	dbCallsCounter      metric.Int64Counter
	dbDurationHistogram metric.Float64Histogram
)

// logMetricError reports instrument creation failures without failing the query path.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

func initDBMeter() {
	meter := otel.Meter(dbMeterName)

	var err error
	dbCallsCounter, err = meter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of database client calls"),
	)
	logMetricError(metricDBCalls, err)

	dbDurationHistogram, err = meter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)
}

// recordDBMetrics increments the call counter and records the operation duration.
func recordDBMetrics(ctx context.Context, tc *Context, query string, elapsed time.Duration, err error) {
	meterOnce.Do(initDBMeter)

	attrs := metric.WithAttributes(
		attribute.String("db.system", normalizeDBVendor(tc.Dialect)),
		attribute.String("db.operation.name", extractDBOperation(query)),
		attribute.Bool("error", err != nil && !errors.Is(err, sql.ErrNoRows)),
	)

	if dbCallsCounter != nil {
		dbCallsCounter.Add(ctx, 1, attrs)
	}
	if dbDurationHistogram != nil {
		dbDurationHistogram.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}
