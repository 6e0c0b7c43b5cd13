package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOperation = "query"

	dbTracerName      = "dbworkbench/database"
	maxDBQueryAttrLen = 2000
)

// TrackDBOperation records a span and metrics for a finished query and logs it.
// Failures log at error level, sql.ErrNoRows at debug. Successful queries slower
// than the configured threshold log a warning. It is a no-op when tc or its logger is nil.
func TrackDBOperation(ctx context.Context, tc *Context, query string, args []any, start time.Time, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	elapsed := time.Since(start)

	createDBSpan(ctx, tc, query, start, err)
	recordDBMetrics(ctx, tc, query, elapsed, err)

	fields := map[string]any{
		"dialect":     tc.Dialect,
		"duration_ms": elapsed.Milliseconds(),
		"query":       TruncateString(query, tc.Settings.MaxQueryLength()),
	}
	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		fields["args"] = SanitizeArgs(args, tc.Settings.MaxQueryLength())
	}
	log := tc.Logger.WithContext(ctx).WithFields(fields)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Debug().Msg("Database operation returned no rows")
	case err != nil:
		log.Error().Err(err).Msg("Database operation error")
	case elapsed > tc.Settings.SlowQueryThreshold():
		log.Warn().Msgf("Slow database operation detected (%s)", elapsed)
	default:
		log.Debug().Msg("Database operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes, ending in "..." when there is room.
// A non-positive maxLen leaves value unchanged.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a copy of args safe to log. Strings and formatted values are
// truncated to maxLen and byte slices are replaced by "<bytes len=N>".
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// createDBSpan records a client span that starts at start and ends now.
func createDBSpan(ctx context.Context, tc *Context, query string, start time.Time, err error) {
	operation := extractDBOperation(query)

	_, span := otel.Tracer(dbTracerName).Start(ctx, "db."+operation,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	span.SetAttributes(
		attribute.String("db.system", normalizeDBVendor(tc.Dialect)),
		attribute.String("db.query.text", TruncateString(query, maxDBQueryAttrLen)),
		attribute.String("db.operation.name", operation),
	)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// extractDBOperation returns the lowercased leading SQL keyword of query,
// or "query" when it is not a recognized statement.
func extractDBOperation(query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(parts[0])
	switch operation {
	case "select", "with", "insert", "update", "delete", "explain":
		return operation
	default:
		return defaultOperation
	}
}

// normalizeDBVendor maps dialect names to OpenTelemetry db.system values.
func normalizeDBVendor(dialect string) string {
	switch d := strings.ToLower(dialect); d {
	case "postgres", "postgresql":
		return "postgresql"
	default:
		return d
	}
}
