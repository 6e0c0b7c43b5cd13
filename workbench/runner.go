package workbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
)

const tracerName = "dbworkbench/workbench"

// ErrNoDatabase is returned by a Runner without a connection.
var ErrNoDatabase = errors.New("no database configured")

// Result holds the rows produced by running a compiled query.
type Result struct {
	Query    CompiledQuery `json:"query"`
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// Runner compiles specs and executes them against one database.
type Runner struct {
	compiler *Compiler
	db       types.Interface
	timeout  time.Duration
	logger   logger.Logger
}

// NewRunner creates a runner. A zero timeout leaves the caller's deadline in charge.
func NewRunner(compiler *Compiler, db types.Interface, timeout time.Duration, log logger.Logger) *Runner {
	return &Runner{compiler: compiler, db: db, timeout: timeout, logger: log}
}

// Run compiles spec for the connected database and returns every row it produces.
// A spec naming a different dialect than the database fails with types.ErrDialectMismatch.
func (r *Runner) Run(ctx context.Context, spec *QuerySpec) (*Result, error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}

	connected := r.db.Dialect()
	if spec.Dialect != "" {
		requested, err := types.ParseDialect(spec.Dialect)
		if err != nil {
			return nil, err
		}
		if requested != connected {
			return nil, fmt.Errorf("%w: spec targets %s, database is %s", types.ErrDialectMismatch, requested, connected)
		}
	}

	target := *spec
	target.Dialect = connected.String()
	query, err := r.compiler.Compile(&target)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "workbench.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", connected.String()),
		attribute.String("workbench.table", spec.Table),
		attribute.String("workbench.mode", query.Mode),
	)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := r.execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("workbench.rows", len(result.Rows)))

	r.logger.WithContext(ctx).Debug().
		Str("table", spec.Table).
		Int("rows", len(result.Rows)).
		Dur("duration", result.Duration).
		Msg("Query spec executed")

	return result, nil
}

func (r *Runner) execute(ctx context.Context, query CompiledQuery) (*Result, error) {
	rows, err := r.db.Query(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &Result{Query: query, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}
