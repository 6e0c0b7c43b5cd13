package server

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
	"github.com/gaborage/dbworkbench/workbench"
)

// DialectsResponse lists the vocabulary accepted by the query routes.
type DialectsResponse struct {
	Default   string         `json:"default"`
	Dialects  []string       `json:"dialects"`
	Functions []FunctionInfo `json:"functions"`
	Operators []string       `json:"operators"`
}

// FunctionInfo describes a column function.
type FunctionInfo struct {
	Name      string `json:"name"`
	Aggregate bool   `json:"aggregate"`
}

// RunResponse is the payload of POST /queries/run.
type RunResponse struct {
	Query      workbench.CompiledQuery `json:"query"`
	Columns    []string                `json:"columns"`
	Rows       [][]any                 `json:"rows"`
	RowCount   int                     `json:"rowCount"`
	DurationMs int64                   `json:"durationMs"`
}

// Empty is the request type of routes without a body.
type Empty struct{}

type queryHandlers struct {
	compiler *workbench.Compiler
	runner   *workbench.Runner
	logger   logger.Logger
	dialect  string
}

func registerQueryRoutes(g *echo.Group, cfg *config.Config, log logger.Logger, deps Deps) {
	h := &queryHandlers{
		compiler: deps.Compiler,
		runner:   deps.Runner,
		logger:   log,
		dialect:  cfg.Query.Dialect,
	}
	if h.compiler == nil {
		h.compiler = workbench.NewCompiler(&cfg.Query)
	}
	if h.runner == nil {
		h.runner = workbench.NewRunner(h.compiler, deps.DB, cfg.Query.Timeout, log)
	}

	GET(g, "/dialects", h.listDialects, cfg)
	POST(g, "/queries/compile", h.compile, cfg)
	POST(g, "/queries/run", h.run, cfg)
}

func (h *queryHandlers) listDialects(_ Empty, _ HandlerContext) (DialectsResponse, IAPIError) {
	resp := DialectsResponse{Default: h.dialect}
	for _, d := range types.SupportedDialects() {
		resp.Dialects = append(resp.Dialects, d.String())
	}
	for _, fn := range types.ColumnFunctions() {
		resp.Functions = append(resp.Functions, FunctionInfo{Name: string(fn), Aggregate: fn.IsAggregate()})
	}
	for _, op := range types.Operators() {
		resp.Operators = append(resp.Operators, string(op))
	}
	return resp, nil
}

// compile renders the spec in the body. The mode query parameter overrides the configured mode.
func (h *queryHandlers) compile(spec workbench.QuerySpec, ctx HandlerContext) (workbench.CompiledQuery, IAPIError) {
	compiler := h.compiler
	if mode := ctx.Echo.QueryParam("mode"); mode != "" {
		var err error
		if compiler, err = compiler.WithMode(mode); err != nil {
			return workbench.CompiledQuery{}, NewBadRequestError("mode must be literal or parameterized")
		}
	}

	compiled, err := compiler.Compile(&spec)
	if err != nil {
		return workbench.CompiledQuery{}, h.queryError(ctx, err)
	}

	h.logger.WithContext(ctx.Context()).Debug().
		Str("dialect", compiled.Dialect.String()).
		Str("table", spec.Table).
		Str("mode", compiled.Mode).
		Msg("Query spec compiled")

	return compiled, nil
}

func (h *queryHandlers) run(spec workbench.QuerySpec, ctx HandlerContext) (RunResponse, IAPIError) {
	result, err := h.runner.Run(ctx.Context(), &spec)
	if err != nil {
		return RunResponse{}, h.queryError(ctx, err)
	}

	return RunResponse{
		Query:      result.Query,
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   len(result.Rows),
		DurationMs: result.Duration.Milliseconds(),
	}, nil
}

// queryError maps compile and run failures onto API errors.
func (h *queryHandlers) queryError(ctx HandlerContext, err error) IAPIError {
	switch {
	case errors.Is(err, workbench.ErrNoDatabase):
		return NewServiceUnavailableError("No database is configured for running queries")
	case errors.Is(err, workbench.ErrInvalidSpec),
		errors.Is(err, types.ErrUnsupportedDialect),
		errors.Is(err, types.ErrDialectMismatch),
		errors.Is(err, types.ErrEmptyTableName),
		errors.Is(err, types.ErrNotSelectQuery):
		return NewBadRequestError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("Query timed out").WithDetails("error", err.Error())
	}

	h.logger.WithContext(ctx.Context()).Warn().Err(err).Msg("Query execution failed")
	return NewQueryFailedError("").WithDetails("error", err.Error())
}
