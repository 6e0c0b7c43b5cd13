package builder

import (
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// ToSQL renders the accumulated query with all values interpolated as literals.
// Rendering does not mutate the builder and always yields the same text for the same state.
//
// Clause order is fixed:
//
//	SELECT <columns|*> FROM <table> [joins] [WHERE] [GROUP BY] [HAVING] [ORDER BY] [LIMIT] [OFFSET]
//
// WARNING: this is the legacy rendering mode. String values are quoted but not escaped, so the
// output is only safe for trusted input. Use ToParameterizedSQL when values come from users.
func (sqb SelectQueryBuilder) ToSQL() string {
	s := sqb.skeleton

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList(s.Columns))
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table)

	for _, j := range s.Joins {
		sb.WriteString(" ")
		sb.WriteString(j.SQL())
	}

	if where := renderConditions(s.Where, sqb.dialect); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if len(s.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(s.GroupBy, ", "))
	}

	if having := renderConditions(s.Having, sqb.dialect); having != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
	}

	if len(s.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderByTerms(s.OrderBy), ", "))
	}

	if s.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(s.Limit, 10))
	}

	if s.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatUint(s.Offset, 10))
	}

	return sb.String()
}

// ToParameterizedSQL renders the accumulated query with filter values bound as arguments,
// using the dialect's placeholder style ($1 for PostgreSQL, ? for MySQL).
// Raw WHERE text, join conditions and identifiers are emitted verbatim; a literal ? in them
// stays a ? and is never numbered as a placeholder.
func (sqb SelectQueryBuilder) ToParameterizedSQL() (sql string, args []any, err error) {
	s := sqb.skeleton
	if s.Table == "" {
		return "", nil, dbtypes.ErrEmptyTableName
	}

	verbatim := func(text string) string { return escapeVerbatim(sqb.dialect, text) }
	verbatimAll := func(texts []string) []string {
		out := make([]string, len(texts))
		for i, t := range texts {
			out[i] = verbatim(t)
		}
		return out
	}

	columns := verbatimAll(s.Columns)
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	sel := squirrel.StatementBuilder.
		PlaceholderFormat(placeholderFormat(sqb.dialect)).
		Select(columns...).
		From(verbatim(s.Table))

	for _, j := range s.Joins {
		sel = sel.JoinClause(verbatim(j.SQL()))
	}

	if len(s.Where) > 0 {
		sel = sel.Where(conditionSqlizer{conditions: s.Where, dialect: sqb.dialect})
	}

	if len(s.GroupBy) > 0 {
		sel = sel.GroupBy(verbatimAll(s.GroupBy)...)
	}

	if len(s.Having) > 0 {
		sel = sel.Having(conditionSqlizer{conditions: s.Having, dialect: sqb.dialect})
	}

	if len(s.OrderBy) > 0 {
		sel = sel.OrderBy(verbatimAll(orderByTerms(s.OrderBy))...)
	}

	if s.Limit > 0 {
		sel = sel.Limit(s.Limit)
	}

	if s.Offset > 0 {
		sel = sel.Offset(s.Offset)
	}

	return sel.ToSql()
}

func selectList(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	return strings.Join(columns, ", ")
}
