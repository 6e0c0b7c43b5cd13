package workbench

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/validation"
)

// Rendering modes.
const (
	ModeLiteral       = config.ModeLiteral
	ModeParameterized = config.ModeParameterized
)

var (
	// ErrInvalidSpec wraps spec validation failures.
	ErrInvalidSpec = errors.New("invalid query spec")
	// ErrUnsupportedMode is returned for rendering modes other than literal and parameterized.
	ErrUnsupportedMode = errors.New("unsupported rendering mode")
)

// CompiledQuery is the SQL rendered for a spec. Args is empty in literal mode.
type CompiledQuery struct {
	Dialect types.Dialect `json:"dialect"`
	SQL     string        `json:"sql"`
	Args    []any         `json:"args"`
	Mode    string        `json:"mode"`
}

// Compiler renders QuerySpecs with a default dialect, a rendering mode and an optional LIMIT cap.
// It is safe for concurrent use.
type Compiler struct {
	defaultDialect string
	mode           string
	maxLimit       uint64
	validate       *validator.Validate
}

// NewCompiler creates a compiler from the query configuration.
// An empty mode means parameterized rendering.
func NewCompiler(cfg *config.QueryConfig) *Compiler {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeParameterized
	}
	return &Compiler{
		defaultDialect: cfg.Dialect,
		mode:           mode,
		maxLimit:       cfg.MaxLimit,
		validate:       validation.New(),
	}
}

// WithMode returns a copy of the compiler rendering in mode.
func (c *Compiler) WithMode(mode string) (*Compiler, error) {
	if mode != ModeLiteral && mode != ModeParameterized {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	clone := *c
	clone.mode = mode
	return &clone, nil
}

// Mode returns the rendering mode.
func (c *Compiler) Mode() string {
	return c.mode
}

// Compile validates spec and renders it.
//
// When any selected column is aggregated, every non-aggregated column expression is
// added to GROUP BY ahead of the explicit groupBy entries. A zero limit becomes the
// configured cap and larger limits are clamped to it.
func (c *Compiler) Compile(spec *QuerySpec) (CompiledQuery, error) {
	if err := c.validate.Struct(spec); err != nil {
		return CompiledQuery{}, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	dialect := spec.Dialect
	if dialect == "" {
		dialect = c.defaultDialect
	}
	qb, err := database.NewQueryBuilder(dialect)
	if err != nil {
		return CompiledQuery{}, err
	}

	q, err := qb.Select().SetTable(spec.Table).SelectExpressions(spec.Columns...)
	if err != nil {
		return CompiledQuery{}, err
	}

	q = q.AddJoin(spec.Joins...)
	for _, f := range spec.Filters {
		q = q.AddWhere(f)
	}
	for _, col := range groupByColumns(spec, qb) {
		q = q.AddGroupBy(col)
	}
	for _, f := range spec.Having {
		q = q.AddHaving(f)
	}
	q = q.AddOrderBy(spec.OrderBy...).
		SetLimit(c.limit(spec.Limit)).
		SetOffset(spec.Offset)

	compiled := CompiledQuery{Dialect: qb.Dialect(), Mode: c.mode}
	if c.mode == ModeLiteral {
		compiled.SQL = q.ToSQL()
		return compiled, nil
	}

	compiled.SQL, compiled.Args, err = q.ToParameterizedSQL()
	if err != nil {
		return CompiledQuery{}, err
	}
	return compiled, nil
}

func (c *Compiler) limit(requested uint64) uint64 {
	if c.maxLimit == 0 {
		return requested
	}
	if requested == 0 || requested > c.maxLimit {
		return c.maxLimit
	}
	return requested
}

// groupByColumns derives GROUP BY entries from the select list and appends the explicit ones.
func groupByColumns(spec *QuerySpec, qb *database.QueryBuilder) []string {
	aggregated := slices.ContainsFunc(spec.Columns, func(col types.Column) bool {
		return col.Fn.IsAggregate()
	})

	var columns []string
	if aggregated {
		for _, col := range spec.Columns {
			if col.Fn.IsAggregate() {
				continue
			}
			col.Alias = ""
			columns = append(columns, qb.TransformColumn(col))
		}
	}
	return append(columns, spec.GroupBy...)
}
