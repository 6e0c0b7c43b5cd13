//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ColumnFunction is a function that can wrap a column expression.
type ColumnFunction string

const (
	FnYear  ColumnFunction = "YEAR"
	FnMonth ColumnFunction = "MONTH"
	FnDay   ColumnFunction = "DAY"
	FnSum   ColumnFunction = "SUM"
	FnCount ColumnFunction = "COUNT"
	FnAvg   ColumnFunction = "AVG"
	FnMax   ColumnFunction = "MAX"
	FnMin   ColumnFunction = "MIN"
)

// ColumnFunctions returns the recognized column functions in a stable order.
func ColumnFunctions() []ColumnFunction {
	return []ColumnFunction{FnYear, FnMonth, FnDay, FnSum, FnCount, FnAvg, FnMax, FnMin}
}

// IsKnown reports whether fn is one of the recognized column functions.
// Matching is exact: "sum" is not recognized.
func (fn ColumnFunction) IsKnown() bool {
	switch fn {
	case FnYear, FnMonth, FnDay, FnSum, FnCount, FnAvg, FnMax, FnMin:
		return true
	default:
		return false
	}
}

// IsAggregate reports whether fn collapses rows, which decides GROUP BY membership for callers.
func (fn ColumnFunction) IsAggregate() bool {
	switch fn {
	case FnSum, FnCount, FnAvg, FnMax, FnMin:
		return true
	default:
		return false
	}
}

// Column is a column reference optionally wrapped in an aggregate or date-part function.
// Distinct only applies to aggregation functions. Alias is used in SELECT lists only.
type Column struct {
	Value    string         `json:"value" yaml:"value" validate:"required"`
	Fn       ColumnFunction `json:"fn,omitempty" yaml:"fn,omitempty" validate:"omitempty,columnfn"`
	Distinct bool           `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	Alias    string         `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq          Operator = "="
	OpNotEq       Operator = "!="
	OpNotEqANSI   Operator = "<>"
	OpLt          Operator = "<"
	OpGt          Operator = ">"
	OpLte         Operator = "<="
	OpGte         Operator = ">="
	OpLike        Operator = "LIKE"
	OpNotLike     Operator = "NOT LIKE"
	OpIn          Operator = "IN"
	OpNotIn       Operator = "NOT IN"
	OpIsNull      Operator = "IS NULL"
	OpIsNotNull   Operator = "IS NOT NULL"
	OpContains    Operator = "CONTAINS"
	OpNotContains Operator = "NOT CONTAINS"
	OpRaw         Operator = "RAW"
)

// Operators returns all 16 filter operators.
func Operators() []Operator {
	return []Operator{
		OpEq, OpNotEq, OpNotEqANSI, OpLt, OpGt, OpLte, OpGte,
		OpLike, OpNotLike, OpIn, OpNotIn, OpIsNull, OpIsNotNull,
		OpContains, OpNotContains, OpRaw,
	}
}

// IsValid reports whether op belongs to the operator set.
func (op Operator) IsValid() bool {
	for _, known := range Operators() {
		if op == known {
			return true
		}
	}
	return false
}

// Connector joins a predicate to the previously accumulated clause text.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// OrDefault returns c, or And when c is empty.
func (c Connector) OrDefault() Connector {
	if c == "" {
		return And
	}
	return c
}

// FilterValue is one operand of a filter.
// When IsColumn is set, a string value is a column reference and is rendered unquoted.
type FilterValue struct {
	Value    any  `json:"value" yaml:"value"`
	IsColumn bool `json:"isColumn,omitempty" yaml:"isColumn,omitempty"`
}

// UnmarshalJSON decodes numeric values as json.Number so integers keep every digit
// and render without exponent notation. Unknown fields are rejected.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	type filterValue FilterValue

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var out filterValue
	if err := dec.Decode(&out); err != nil {
		return err
	}
	*v = FilterValue(out)
	return nil
}

// Filter is one structured condition destined for WHERE or HAVING.
// ID is a stable identity for callers and never appears in SQL.
type Filter struct {
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	Column    string         `json:"column" yaml:"column" validate:"required"`
	Operator  Operator       `json:"operator" yaml:"operator" validate:"required,sqloperator"`
	Values    []FilterValue  `json:"value,omitempty" yaml:"value,omitempty"`
	Fn        ColumnFunction `json:"fn,omitempty" yaml:"fn,omitempty" validate:"omitempty,columnfn"`
	Connector Connector      `json:"connector,omitempty" yaml:"connector,omitempty" validate:"omitempty,connector"`
	Enabled   *bool          `json:"isEnabled,omitempty" yaml:"isEnabled,omitempty"`
}

// IsEnabled reports whether the filter contributes to the rendered clause.
// Filters are enabled unless Enabled is explicitly false.
func (f Filter) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// JoinType is the kind of JOIN.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
)

// Join is a JOIN clause. On is raw ON-condition text and is never validated.
type Join struct {
	Type  JoinType `json:"type" yaml:"type" validate:"required,jointype"`
	Table string   `json:"table" yaml:"table" validate:"required"`
	Alias string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	On    string   `json:"on" yaml:"on" validate:"required"`
}

// SQL renders the join as "<TYPE> JOIN <table> [alias] ON <on>".
func (j Join) SQL() string {
	var sb strings.Builder
	sb.WriteString(string(j.Type))
	sb.WriteString(" JOIN ")
	sb.WriteString(j.Table)
	if j.Alias != "" {
		sb.WriteString(" ")
		sb.WriteString(j.Alias)
	}
	sb.WriteString(" ON ")
	sb.WriteString(j.On)
	return sb.String()
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderBy is an ORDER BY entry.
type OrderBy struct {
	Column    string    `json:"column" yaml:"column" validate:"required"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,sortdirection"`
}

// OrDefault returns d normalized to upper case, or Asc when d is empty.
func (d Direction) OrDefault() Direction {
	if d == "" {
		return Asc
	}
	return Direction(strings.ToUpper(string(d)))
}
