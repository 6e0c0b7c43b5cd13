package observability

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
	"github.com/gaborage/dbworkbench/workbench"
)

type sqlmockDB struct {
	db *sql.DB
}

func (m *sqlmockDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

func (m *sqlmockDB) Health(ctx context.Context) error { return m.db.PingContext(ctx) }

func (m *sqlmockDB) Stats() map[string]any { return map[string]any{} }

func (m *sqlmockDB) Dialect() types.Dialect { return types.PostgreSQL }

func (m *sqlmockDB) Close() error { return m.db.Close() }

func stdoutConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "dbworkbench", Version: "test", Env: config.EnvDevelopment},
		Query: config.QueryConfig{
			Dialect:  "postgres",
			Mode:     "parameterized",
			MaxLimit: 100,
		},
		Observability: config.ObservabilityConfig{
			Enabled:  true,
			Endpoint: config.EndpointStdout,
			Protocol: config.ProtocolHTTP,
			Trace:    config.TraceConfig{Enabled: true, SampleRate: 1.0},
			Metrics:  config.MetricsConfig{Enabled: true, Interval: time.Hour},
		},
	}
}

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})
}

func TestNewProviderDisabledReturnsNoop(t *testing.T) {
	cfg := stdoutConfig()
	cfg.Observability.Enabled = false

	p, err := NewProvider(cfg, logger.Nop())
	require.NoError(t, err)

	assert.IsType(t, &noopProvider{}, p)
	assert.NotNil(t, p.TracerProvider())
	assert.NotNil(t, p.MeterProvider())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviderExportsRunnerSpan(t *testing.T) {
	resetGlobals(t)
	cfg := stdoutConfig()

	var out bytes.Buffer
	p, err := NewProvider(cfg, logger.Nop(), WithWriter(&out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectQuery("SELECT id FROM orders WHERE status = $1 LIMIT 100").
		WithArgs("paid").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	runner := workbench.NewRunner(workbench.NewCompiler(&cfg.Query), &sqlmockDB{db: db}, time.Second, logger.Nop())
	_, err = runner.Run(context.Background(), &workbench.QuerySpec{
		Table:   "orders",
		Columns: []types.Column{{Value: "id"}},
		Filters: []types.Filter{
			{Column: "status", Operator: types.OpEq, Values: []types.FilterValue{{Value: "paid"}}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, p.ForceFlush(context.Background()))

	exported := out.String()
	assert.Contains(t, exported, `"Name": "workbench.run"`)
	assert.Contains(t, exported, "workbench.table")
	assert.Contains(t, exported, "dbworkbench")
}

func TestProviderExportsMetrics(t *testing.T) {
	resetGlobals(t)
	cfg := stdoutConfig()
	cfg.Observability.Trace.Enabled = false

	var out bytes.Buffer
	p, err := NewProvider(cfg, logger.Nop(), WithWriter(&out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	counter, err := p.MeterProvider().Meter("dbworkbench/test").Int64Counter("workbench.compiled")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, p.ForceFlush(context.Background()))
	assert.Contains(t, out.String(), "workbench.compiled")
	assert.IsType(t, tracenoop.NewTracerProvider(), p.TracerProvider())
}

func TestProviderOTLPExporters(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		endpoint string
	}{
		{name: "http_host", protocol: config.ProtocolHTTP, endpoint: "localhost:4318"},
		{name: "http_url", protocol: config.ProtocolHTTP, endpoint: "http://localhost:4318"},
		{name: "grpc", protocol: config.ProtocolGRPC, endpoint: "localhost:4317"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			cfg := stdoutConfig()
			cfg.Observability.Endpoint = tt.endpoint
			cfg.Observability.Protocol = tt.protocol
			cfg.Observability.Insecure = true
			cfg.Observability.Headers = map[string]string{"authorization": "Bearer token"}

			p, err := NewProvider(cfg, logger.Nop())
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = p.Shutdown(ctx)
		})
	}
}

func TestProviderRejectsUnknownProtocol(t *testing.T) {
	cfg := stdoutConfig()
	cfg.Observability.Endpoint = "collector:4317"
	cfg.Observability.Protocol = "udp"

	_, err := NewProvider(cfg, logger.Nop())

	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "observability.protocol", cfgErr.Field)
}
