package builder

import (
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// QueryType is the kind of statement a Skeleton describes.
type QueryType string

// SelectQuery is currently the only supported query type.
const SelectQuery QueryType = "SELECT"

// Skeleton is the intermediate, not-yet-rendered representation of a query.
// A zero Limit or Offset means the clause is absent.
type Skeleton struct {
	Type    QueryType
	Table   string
	Columns []string
	Joins   []dbtypes.Join
	Where   []Condition
	GroupBy []string
	Having  []Condition
	OrderBy []dbtypes.OrderBy
	Limit   uint64
	Offset  uint64
}

// Condition is one accumulated WHERE/HAVING term: a structured filter or pre-rendered raw text.
// The connector of the first term in a clause is never rendered.
type Condition struct {
	Connector dbtypes.Connector
	Filter    *dbtypes.Filter
	Raw       string
}

func newSkeleton() Skeleton {
	return Skeleton{Type: SelectQuery}
}

// clone returns a deep copy so that two builders never share backing arrays.
func (s Skeleton) clone() Skeleton {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.Joins = slices.Clone(s.Joins)
	out.Where = cloneConditions(s.Where)
	out.GroupBy = slices.Clone(s.GroupBy)
	out.Having = cloneConditions(s.Having)
	out.OrderBy = slices.Clone(s.OrderBy)
	return out
}

func cloneConditions(conds []Condition) []Condition {
	if conds == nil {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = c
		if c.Filter != nil {
			f := *c.Filter
			f.Values = slices.Clone(c.Filter.Values)
			out[i].Filter = &f
		}
	}
	return out
}

// renderConditions renders a WHERE/HAVING term list as literal SQL text.
// It returns an empty string when there are no terms.
func renderConditions(conds []Condition, dialect dbtypes.Dialect) string {
	var sb strings.Builder
	for i, c := range conds {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(string(c.Connector.OrDefault()))
			sb.WriteString(" ")
		}
		if c.Filter != nil {
			sb.WriteString(RenderFilter(*c.Filter, dialect))
		} else {
			sb.WriteString(c.Raw)
		}
	}
	return sb.String()
}

// conditionSqlizer renders a term list with placeholders, concatenating terms the same way
// renderConditions does so both modes produce the same boolean structure.
type conditionSqlizer struct {
	conditions []Condition
	dialect    dbtypes.Dialect
}

var _ squirrel.Sqlizer = conditionSqlizer{}

// ToSql implements squirrel.Sqlizer.
//
//nolint:revive // ToSql is required by squirrel.Sqlizer interface (lowercase 's')
func (cs conditionSqlizer) ToSql() (sql string, args []any, err error) {
	var sb strings.Builder
	for i, c := range cs.conditions {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(string(c.Connector.OrDefault()))
			sb.WriteString(" ")
		}
		if c.Filter == nil {
			sb.WriteString(escapeVerbatim(cs.dialect, c.Raw))
			continue
		}
		part, partArgs, err := filterSqlizer{filter: *c.Filter, dialect: cs.dialect}.ToSql()
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(part)
		args = append(args, partArgs...)
	}
	return sb.String(), args, nil
}

// dedupOrderBy collapses repeated columns: the last direction wins, the first position is kept.
func dedupOrderBy(clauses []dbtypes.OrderBy) []dbtypes.OrderBy {
	index := make(map[string]int, len(clauses))
	out := make([]dbtypes.OrderBy, 0, len(clauses))
	for _, c := range clauses {
		if i, ok := index[c.Column]; ok {
			out[i].Direction = c.Direction
			continue
		}
		index[c.Column] = len(out)
		out = append(out, c)
	}
	return out
}

func orderByTerms(clauses []dbtypes.OrderBy) []string {
	deduped := dedupOrderBy(clauses)
	terms := make([]string, len(deduped))
	for i, c := range deduped {
		terms[i] = c.Column + " " + string(c.Direction.OrDefault())
	}
	return terms
}
