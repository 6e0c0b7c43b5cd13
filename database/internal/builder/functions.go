package builder

import (
	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// TransformColumn renders a column expression for the given dialect.
// Unrecognized or empty functions return the raw value unchanged; the value itself is never validated.
func TransformColumn(col dbtypes.Column, dialect dbtypes.Dialect) string {
	if !col.Fn.IsKnown() {
		return col.Value
	}

	switch dialect {
	case dbtypes.PostgreSQL:
		return postgresFunction(col)
	default:
		return mysqlFunction(col)
	}
}

func mysqlFunction(col dbtypes.Column) string {
	switch col.Fn {
	case dbtypes.FnYear, dbtypes.FnMonth, dbtypes.FnDay:
		return string(col.Fn) + "(" + col.Value + ")"
	case dbtypes.FnSum:
		return "coalesce(SUM(" + aggregateArgument(col) + "), 0)"
	case dbtypes.FnCount, dbtypes.FnAvg, dbtypes.FnMax, dbtypes.FnMin:
		return string(col.Fn) + "(" + aggregateArgument(col) + ")"
	default:
		return col.Value
	}
}

func postgresFunction(col dbtypes.Column) string {
	switch col.Fn {
	case dbtypes.FnYear, dbtypes.FnMonth, dbtypes.FnDay:
		return "EXTRACT(" + string(col.Fn) + " FROM " + col.Value + ")"
	case dbtypes.FnSum:
		return "COALESCE(SUM(" + aggregateArgument(col) + "), 0)"
	case dbtypes.FnCount, dbtypes.FnAvg, dbtypes.FnMax, dbtypes.FnMin:
		return string(col.Fn) + "(" + aggregateArgument(col) + ")"
	default:
		return col.Value
	}
}

func aggregateArgument(col dbtypes.Column) string {
	if col.Distinct && col.Fn.IsAggregate() {
		return "distinct " + col.Value
	}
	return col.Value
}

// selectExpression renders a column for a SELECT list, appending the alias when present.
func selectExpression(col dbtypes.Column, dialect dbtypes.Dialect) string {
	expr := TransformColumn(col, dialect)
	if col.Alias != "" {
		return expr + " AS " + col.Alias
	}
	return expr
}
