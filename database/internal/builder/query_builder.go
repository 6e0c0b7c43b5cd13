// Package builder compiles structured, dialect-agnostic SELECT descriptions into SQL.
// It implements dialect-specific function rendering, filter rendering and clause assembly
// for MySQL and PostgreSQL.
package builder

import (
	"fmt"
	"slices"

	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// QueryBuilder is bound to one dialect and hands out SELECT builders for it.
type QueryBuilder struct {
	dialect dbtypes.Dialect
}

// NewQueryBuilder creates a query builder for the specified dialect.
// Unknown dialects are rejected here rather than at render time.
func NewQueryBuilder(dialect dbtypes.Dialect) (*QueryBuilder, error) {
	if !dialect.IsValid() {
		return nil, fmt.Errorf("%w: %q", dbtypes.ErrUnsupportedDialect, dialect)
	}
	return &QueryBuilder{dialect: dialect}, nil
}

// Dialect returns the dialect this builder renders for.
func (qb *QueryBuilder) Dialect() dbtypes.Dialect {
	return qb.dialect
}

// Select returns an empty SELECT builder for the builder's dialect.
func (qb *QueryBuilder) Select() SelectQueryBuilder {
	return SelectQueryBuilder{dialect: qb.dialect, skeleton: newSkeleton()}
}

// TransformColumn renders a column expression for the builder's dialect.
func (qb *QueryBuilder) TransformColumn(col dbtypes.Column) string {
	return TransformColumn(col, qb.dialect)
}

// RenderFilter renders a filter as literal SQL for the builder's dialect.
func (qb *QueryBuilder) RenderFilter(f dbtypes.Filter) string {
	return RenderFilter(f, qb.dialect)
}

// SelectQueryBuilder accumulates the clauses of a SELECT statement.
//
// It is an immutable value: every composition method returns a new builder and leaves the
// receiver untouched, so a builder can be branched or shared without aliasing surprises.
//
//	q := qb.Select().SetTable("users").AddWhere(f).SetLimit(10)
//	sql := q.ToSQL()
type SelectQueryBuilder struct {
	dialect  dbtypes.Dialect
	skeleton Skeleton
}

// Dialect returns the dialect the builder renders for.
func (sqb SelectQueryBuilder) Dialect() dbtypes.Dialect {
	return sqb.dialect
}

// Skeleton returns a deep copy of the accumulated query state.
func (sqb SelectQueryBuilder) Skeleton() Skeleton {
	return sqb.skeleton.clone()
}

// SetTable sets the table to select from.
func (sqb SelectQueryBuilder) SetTable(name string) SelectQueryBuilder {
	sqb.skeleton.Table = name
	return sqb
}

// SelectColumns sets the column list. An empty list renders as *.
// It fails with ErrNotSelectQuery, returning the receiver unchanged, when the skeleton is not a SELECT.
func (sqb SelectQueryBuilder) SelectColumns(columns ...string) (SelectQueryBuilder, error) {
	if sqb.skeleton.Type != SelectQuery {
		return sqb, fmt.Errorf("select columns on %s query: %w", sqb.skeleton.Type, dbtypes.ErrNotSelectQuery)
	}
	sqb.skeleton.Columns = slices.Clone(columns)
	return sqb, nil
}

// SelectExpressions transforms each column through the dialect's function mapping
// (appending "AS alias" when set) and then behaves like SelectColumns.
func (sqb SelectQueryBuilder) SelectExpressions(columns ...dbtypes.Column) (SelectQueryBuilder, error) {
	rendered := make([]string, len(columns))
	for i, col := range columns {
		rendered[i] = selectExpression(col, sqb.dialect)
	}
	return sqb.SelectColumns(rendered...)
}

// AddWhere appends a filter to the WHERE clause, joined by the filter's connector (AND by default).
// Disabled filters leave the builder unchanged.
func (sqb SelectQueryBuilder) AddWhere(f dbtypes.Filter) SelectQueryBuilder {
	if !f.IsEnabled() {
		return sqb
	}
	sqb.skeleton.Where = appendCondition(sqb.skeleton.Where, filterCondition(f))
	return sqb
}

// AddWhereRaw appends pre-rendered SQL text to the WHERE clause, bypassing the filter renderer.
//
// WARNING: the text is emitted verbatim. Never build it from user input.
func (sqb SelectQueryBuilder) AddWhereRaw(text string, connector ...dbtypes.Connector) SelectQueryBuilder {
	c := Condition{Connector: dbtypes.And, Raw: text}
	if len(connector) > 0 {
		c.Connector = connector[0].OrDefault()
	}
	sqb.skeleton.Where = appendCondition(sqb.skeleton.Where, c)
	return sqb
}

// ClearWhere removes the WHERE clause.
func (sqb SelectQueryBuilder) ClearWhere() SelectQueryBuilder {
	sqb.skeleton.Where = nil
	return sqb
}

// AddHaving appends a filter to the HAVING clause with the same rules as AddWhere.
func (sqb SelectQueryBuilder) AddHaving(f dbtypes.Filter) SelectQueryBuilder {
	if !f.IsEnabled() {
		return sqb
	}
	sqb.skeleton.Having = appendCondition(sqb.skeleton.Having, filterCondition(f))
	return sqb
}

// ClearHaving removes the HAVING clause.
func (sqb SelectQueryBuilder) ClearHaving() SelectQueryBuilder {
	sqb.skeleton.Having = nil
	return sqb
}

// AddGroupBy adds a GROUP BY column. A column already present keeps its position.
func (sqb SelectQueryBuilder) AddGroupBy(column string) SelectQueryBuilder {
	if i := slices.Index(sqb.skeleton.GroupBy, column); i >= 0 {
		groupBy := slices.Clone(sqb.skeleton.GroupBy)
		groupBy[i] = column
		sqb.skeleton.GroupBy = groupBy
		return sqb
	}
	sqb.skeleton.GroupBy = append(slices.Clip(sqb.skeleton.GroupBy), column)
	return sqb
}

// AddOrderBy appends ORDER BY entries. Repeated columns are collapsed at render time.
func (sqb SelectQueryBuilder) AddOrderBy(clauses ...dbtypes.OrderBy) SelectQueryBuilder {
	sqb.skeleton.OrderBy = append(slices.Clip(sqb.skeleton.OrderBy), clauses...)
	return sqb
}

// ClearOrderBy removes the ORDER BY clause.
func (sqb SelectQueryBuilder) ClearOrderBy() SelectQueryBuilder {
	sqb.skeleton.OrderBy = nil
	return sqb
}

// AddJoin appends JOIN clauses in order. Duplicates are kept.
func (sqb SelectQueryBuilder) AddJoin(clauses ...dbtypes.Join) SelectQueryBuilder {
	sqb.skeleton.Joins = append(slices.Clip(sqb.skeleton.Joins), clauses...)
	return sqb
}

// SetLimit sets the LIMIT. Zero removes it.
func (sqb SelectQueryBuilder) SetLimit(n uint64) SelectQueryBuilder {
	sqb.skeleton.Limit = n
	return sqb
}

// SetOffset sets the OFFSET. Zero removes it.
func (sqb SelectQueryBuilder) SetOffset(n uint64) SelectQueryBuilder {
	sqb.skeleton.Offset = n
	return sqb
}

func filterCondition(f dbtypes.Filter) Condition {
	f.Values = slices.Clone(f.Values)
	return Condition{Connector: f.Connector.OrDefault(), Filter: &f}
}

// appendCondition never writes into a backing array another builder may hold.
func appendCondition(conds []Condition, c Condition) []Condition {
	return append(slices.Clip(conds), c)
}
