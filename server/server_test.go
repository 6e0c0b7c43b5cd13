package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
)

const (
	compilePath = "/api/queries/compile"
	runPath     = "/api/queries/run"
	paidSpec    = `{"table":"orders","columns":[{"value":"id"},{"value":"status"}],` +
		`"filters":[{"column":"status","operator":"=","value":[{"value":"paid"}]}]}`
)

type sqlmockDB struct {
	db      *sql.DB
	dialect types.Dialect
}

func (m *sqlmockDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

func (m *sqlmockDB) Health(ctx context.Context) error { return m.db.PingContext(ctx) }

func (m *sqlmockDB) Stats() map[string]any { return map[string]any{"open_connections": 1} }

func (m *sqlmockDB) Dialect() types.Dialect { return m.dialect }

func (m *sqlmockDB) Close() error { return m.db.Close() }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "dbworkbench", Version: "test", Env: config.EnvDevelopment},
		Server: config.ServerConfig{
			Host:    "127.0.0.1",
			Port:    8080,
			Timeout: config.TimeoutConfig{Read: time.Second, Write: time.Second, Middleware: 5 * time.Second},
			Path:    config.PathConfig{Base: "/api"},
		},
		Query: config.QueryConfig{
			Dialect:  config.DialectPostgres,
			Mode:     config.ModeParameterized,
			MaxLimit: 100,
			Timeout:  time.Second,
		},
	}
}

func newTestDB(t *testing.T, dialect types.Dialect) (*sqlmockDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &sqlmockDB{db: db, dialect: dialect}, mock
}

func newTestServer(t *testing.T, cfg *config.Config, db types.Interface) *Server {
	t.Helper()
	return New(cfg, logger.Nop(), Deps{DB: db})
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Error *APIErrorResponse `json:"error"`
	Meta  map[string]any    `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := doRequest(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyCheck(t *testing.T) {
	t.Run("without_database", func(t *testing.T) {
		s := newTestServer(t, testConfig(), nil)

		rec := doRequest(t, s, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"disabled"`)
	})

	t.Run("healthy_database", func(t *testing.T) {
		db, mock := newTestDB(t, types.PostgreSQL)
		mock.ExpectPing()
		s := newTestServer(t, testConfig(), db)

		rec := doRequest(t, s, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
		assert.Contains(t, rec.Body.String(), `"dialect":"postgres"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy_database", func(t *testing.T) {
		db, mock := newTestDB(t, types.PostgreSQL)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		s := newTestServer(t, testConfig(), db)

		rec := doRequest(t, s, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"unhealthy"`)
	})
}

func TestCustomProbePaths(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Path = config.PathConfig{Base: "v1/", Health: "livez", Ready: "readyz"}
	s := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/v1/dialects", "").Code)
}

func TestListDialects(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := doRequest(t, s, http.MethodGet, "/api/dialects", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DialectsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))

	assert.Equal(t, "postgres", resp.Default)
	assert.Equal(t, []string{"mysql", "postgres"}, resp.Dialects)
	assert.Contains(t, resp.Functions, FunctionInfo{Name: "SUM", Aggregate: true})
	assert.Contains(t, resp.Functions, FunctionInfo{Name: "YEAR", Aggregate: false})
	assert.Contains(t, resp.Operators, "NOT LIKE")
	assert.Len(t, resp.Operators, 16)
}

func TestCompileQuery(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		body         string
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:         "parameterized_default_dialect",
			target:       compilePath,
			body:         paidSpec,
			expectedSQL:  "SELECT id, status FROM orders WHERE status = $1 LIMIT 100",
			expectedArgs: []any{"paid"},
		},
		{
			name:        "literal_mode_override",
			target:      compilePath + "?mode=literal",
			body:        paidSpec,
			expectedSQL: "SELECT id, status FROM orders WHERE status = 'paid' LIMIT 100",
		},
		{
			name:   "mysql_aggregate",
			target: compilePath + "?mode=literal",
			body: `{"dialect":"mysql","table":"orders","limit":5,` +
				`"columns":[{"value":"status"},{"value":"amount","fn":"SUM","alias":"total"}],` +
				`"orderBy":[{"column":"total","direction":"desc"}]}`,
			expectedSQL: "SELECT status, coalesce(SUM(amount), 0) AS total FROM orders " +
				"GROUP BY status ORDER BY total DESC LIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), nil)

			rec := doRequest(t, s, http.MethodPost, tt.target, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var compiled struct {
				SQL  string `json:"sql"`
				Args []any  `json:"args"`
			}
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &compiled))
			assert.Equal(t, tt.expectedSQL, compiled.SQL)
			if tt.expectedArgs != nil {
				assert.Equal(t, tt.expectedArgs, compiled.Args)
			} else {
				assert.Empty(t, compiled.Args)
			}
		})
	}
}

func TestCompileQueryKeepsNumbersExact(t *testing.T) {
	body := `{"table":"orders","filters":[` +
		`{"column":"amount","operator":">","value":[{"value":1000000}]},` +
		`{"column":"id","operator":"=","value":[{"value":9007199254740993}]}]}`
	s := newTestServer(t, testConfig(), nil)

	decode := func(rec *httptest.ResponseRecorder) (sql string, args []json.Number) {
		t.Helper()
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var compiled struct {
			SQL  string        `json:"sql"`
			Args []json.Number `json:"args"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &compiled))
		return compiled.SQL, compiled.Args
	}

	sql, args := decode(doRequest(t, s, http.MethodPost, compilePath+"?mode=literal", body))
	assert.Equal(t, "SELECT * FROM orders WHERE amount > 1000000 AND id = 9007199254740993 LIMIT 100", sql)
	assert.Empty(t, args)

	sql, args = decode(doRequest(t, s, http.MethodPost, compilePath, body))
	assert.Equal(t, "SELECT * FROM orders WHERE amount > $1 AND id = $2 LIMIT 100", sql)
	assert.Equal(t, []json.Number{"1000000", "9007199254740993"}, args)
}

func TestCompileQueryRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		body         string
		expectedCode string
		expectedText string
	}{
		{
			name:         "malformed_json",
			target:       compilePath,
			body:         `{"table":`,
			expectedCode: CodeBadRequest,
		},
		{
			name:         "missing_table",
			target:       compilePath,
			body:         `{"columns":[{"value":"id"}]}`,
			expectedCode: CodeValidationFailed,
			expectedText: "table is required",
		},
		{
			name:         "unknown_operator",
			target:       compilePath,
			body:         `{"table":"orders","filters":[{"column":"id","operator":"BETWEEN"}]}`,
			expectedCode: CodeValidationFailed,
			expectedText: "filters[0].operator must be a supported filter operator",
		},
		{
			name:         "unknown_dialect",
			target:       compilePath,
			body:         `{"dialect":"oracle","table":"orders"}`,
			expectedCode: CodeValidationFailed,
			expectedText: "dialect must be one of: mysql, postgres",
		},
		{
			name:         "unknown_mode",
			target:       compilePath + "?mode=prepared",
			body:         paidSpec,
			expectedCode: CodeBadRequest,
			expectedText: "mode must be literal or parameterized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), nil)

			rec := doRequest(t, s, http.MethodPost, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.expectedCode, env.Error.Code)
			if tt.expectedText != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedText)
			}
		})
	}
}

func TestRunQuery(t *testing.T) {
	db, mock := newTestDB(t, types.PostgreSQL)
	mock.ExpectQuery("SELECT id, status FROM orders WHERE status = $1 LIMIT 100").
		WithArgs("paid").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(1), []byte("paid")).
			AddRow(int64(2), "paid"))
	s := newTestServer(t, testConfig(), db)

	rec := doRequest(t, s, http.MethodPost, runPath, paidSpec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, []string{"id", "status"}, resp.Columns)
	assert.Equal(t, 2, resp.RowCount)
	assert.Equal(t, [][]any{{float64(1), "paid"}, {float64(2), "paid"}}, resp.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunQueryErrors(t *testing.T) {
	t.Run("no_database", func(t *testing.T) {
		s := newTestServer(t, testConfig(), nil)

		rec := doRequest(t, s, http.MethodPost, runPath, paidSpec)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, CodeServiceUnavailable, decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("dialect_mismatch", func(t *testing.T) {
		db, _ := newTestDB(t, types.MySQL)
		s := newTestServer(t, testConfig(), db)

		rec := doRequest(t, s, http.MethodPost, runPath, `{"dialect":"postgres","table":"orders"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "query dialect does not match database")
	})

	t.Run("database_error", func(t *testing.T) {
		db, mock := newTestDB(t, types.PostgreSQL)
		mock.ExpectQuery("SELECT id, status FROM orders WHERE status = $1 LIMIT 100").
			WithArgs("paid").
			WillReturnError(errors.New(`relation "orders" does not exist`))
		s := newTestServer(t, testConfig(), db)

		rec := doRequest(t, s, http.MethodPost, runPath, paidSpec)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, CodeQueryFailed, env.Error.Code)
		assert.Contains(t, env.Error.Details["error"], "does not exist")
	})
}

func TestErrorDetailsHiddenOutsideDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.EnvProduction
	s := newTestServer(t, cfg, nil)

	rec := doRequest(t, s, http.MethodPost, compilePath, `{"columns":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Nil(t, env.Error.Details)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := doRequest(t, s, http.MethodGet, "/api/unknown", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeNotFound, env.Error.Code)
	assert.NotEmpty(t, env.Meta["traceId"])
}

func TestResponsesCarryRequestAndTimingHeaders(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := doRequest(t, s, http.MethodGet, "/api/dialects", "")

	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderXResponseTime))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestStatusToErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, statusToErrorCode(http.StatusNotFound))
	assert.Equal(t, CodeTimeout, statusToErrorCode(http.StatusGatewayTimeout))
	assert.Equal(t, CodeBadRequest, statusToErrorCode(http.StatusUnsupportedMediaType))
	assert.Equal(t, CodeInternal, statusToErrorCode(http.StatusBadGateway))
}

func TestNormalizePaths(t *testing.T) {
	assert.Equal(t, "", normalizeBasePath(""))
	assert.Equal(t, "", normalizeBasePath("/"))
	assert.Equal(t, "/api", normalizeBasePath("api/"))
	assert.Equal(t, "/health", normalizeRoutePath("", "/health"))
	assert.Equal(t, "/livez", normalizeRoutePath("livez", "/health"))
}
