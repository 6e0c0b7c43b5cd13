package builder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// RenderFilter renders a filter as a SQL boolean expression with its values interpolated as literals.
// The result carries no leading connector.
//
// WARNING: string values are wrapped in single quotes without escaping. This is the legacy
// rendering mode kept for output compatibility; values must be trusted or pre-validated.
// Prefer filterSqlizer (via SelectQueryBuilder.ToParameterizedSQL) for untrusted input.
func RenderFilter(f dbtypes.Filter, dialect dbtypes.Dialect) string {
	column := TransformColumn(dbtypes.Column{Value: f.Column, Fn: f.Fn}, dialect)

	switch f.Operator {
	case dbtypes.OpIsNull, dbtypes.OpIsNotNull:
		return column + " " + string(f.Operator)
	case dbtypes.OpIn, dbtypes.OpNotIn:
		items := make([]string, len(f.Values))
		for i, v := range f.Values {
			items[i] = formatLiteral(v)
		}
		return column + " " + string(f.Operator) + " (" + strings.Join(items, ", ") + ")"
	case dbtypes.OpLike:
		return column + " " + likeKeyword(dialect) + " '%" + likePattern(f) + "%'"
	case dbtypes.OpNotLike:
		return column + " " + notLikeKeyword(dialect) + " '%" + likePattern(f) + "%'"
	default:
		v, _ := firstValue(f)
		return column + " " + string(f.Operator) + " " + formatLiteral(v)
	}
}

// filterSqlizer renders a filter with ? placeholders and bound arguments.
// Column references (IsColumn values) stay inline because they are identifiers, not data.
type filterSqlizer struct {
	filter  dbtypes.Filter
	dialect dbtypes.Dialect
}

var _ squirrel.Sqlizer = filterSqlizer{}

// ToSql implements squirrel.Sqlizer.
//
//nolint:revive // ToSql is required by squirrel.Sqlizer interface (lowercase 's')
func (fs filterSqlizer) ToSql() (sql string, args []any, err error) {
	f := fs.filter
	column := escapeVerbatim(fs.dialect, TransformColumn(dbtypes.Column{Value: f.Column, Fn: f.Fn}, fs.dialect))

	switch f.Operator {
	case dbtypes.OpIsNull, dbtypes.OpIsNotNull:
		return column + " " + string(f.Operator), nil, nil
	case dbtypes.OpIn, dbtypes.OpNotIn:
		items := make([]string, len(f.Values))
		for i, v := range f.Values {
			placeholder, arg, bound := bindValue(v, fs.dialect)
			items[i] = placeholder
			if bound {
				args = append(args, arg)
			}
		}
		return column + " " + string(f.Operator) + " (" + strings.Join(items, ", ") + ")", args, nil
	case dbtypes.OpLike:
		return column + " " + likeKeyword(fs.dialect) + " ?", []any{"%" + likePattern(f) + "%"}, nil
	case dbtypes.OpNotLike:
		return column + " " + notLikeKeyword(fs.dialect) + " ?", []any{"%" + likePattern(f) + "%"}, nil
	default:
		v, _ := firstValue(f)
		placeholder, arg, bound := bindValue(v, fs.dialect)
		if bound {
			args = []any{arg}
		}
		return column + " " + string(f.Operator) + " " + placeholder, args, nil
	}
}

// firstValue returns the first operand of f. Operators other than IN/NOT IN only look at the first one.
func firstValue(f dbtypes.Filter) (dbtypes.FilterValue, bool) {
	if len(f.Values) == 0 {
		return dbtypes.FilterValue{}, false
	}
	return f.Values[0], true
}

// likePattern returns the raw text placed between the % wildcards.
func likePattern(f dbtypes.Filter) string {
	v, ok := firstValue(f)
	if !ok || v.Value == nil {
		return ""
	}
	return formatScalar(v.Value)
}

// formatLiteral renders a value for literal interpolation.
// Strings are single-quoted unless they are column references; nil becomes NULL.
func formatLiteral(v dbtypes.FilterValue) string {
	if v.Value == nil {
		return "NULL"
	}
	if s, ok := v.Value.(string); ok {
		if v.IsColumn {
			return s
		}
		return "'" + s + "'"
	}
	return formatScalar(v.Value)
}

// formatScalar renders a value bare. Floats never use exponent notation.
func formatScalar(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprint(v)
	}
}

// bindValue returns the SQL text for v and, when v is data, the argument to bind.
func bindValue(v dbtypes.FilterValue, dialect dbtypes.Dialect) (placeholder string, arg any, bound bool) {
	if s, ok := v.Value.(string); ok && v.IsColumn {
		return escapeVerbatim(dialect, s), nil, false
	}
	return "?", bindArg(v.Value), true
}

// bindArg converts json.Number into the narrowest Go number that holds it exactly,
// since drivers do not accept json.Number.
func bindArg(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
