package workbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
)

const (
	tableOrders = "orders"
	colStatus   = "status"
	colAmount   = "amount"
)

func newCompiler(dialect, mode string, maxLimit uint64) *Compiler {
	return NewCompiler(&config.QueryConfig{Dialect: dialect, Mode: mode, MaxLimit: maxLimit})
}

func revenueSpec() *QuerySpec {
	return &QuerySpec{
		Table: tableOrders,
		Columns: []types.Column{
			{Value: colStatus},
			{Value: colAmount, Fn: types.FnSum, Alias: "total"},
		},
		Filters: []types.Filter{
			{Column: colStatus, Operator: types.OpNotEq, Values: []types.FilterValue{{Value: "cancelled"}}},
		},
		OrderBy: []types.OrderBy{{Column: "total", Direction: types.Desc}},
	}
}

func TestCompileLiteralDerivesGroupByAndCapsLimit(t *testing.T) {
	c := newCompiler("postgres", ModeLiteral, 100)

	q, err := c.Compile(revenueSpec())
	require.NoError(t, err)

	assert.Equal(t, types.PostgreSQL, q.Dialect)
	assert.Equal(t, ModeLiteral, q.Mode)
	assert.Empty(t, q.Args)
	assert.Equal(t,
		"SELECT status, COALESCE(SUM(amount), 0) AS total FROM orders WHERE status != 'cancelled' "+
			"GROUP BY status ORDER BY total DESC LIMIT 100",
		q.SQL,
	)
}

func TestCompileParameterizedPerDialect(t *testing.T) {
	spec := &QuerySpec{
		Table: "users",
		Filters: []types.Filter{
			{Column: "age", Operator: types.OpGt, Values: []types.FilterValue{{Value: 30}}},
			{Column: "name", Operator: types.OpLike, Connector: types.Or, Values: []types.FilterValue{{Value: "jo"}}},
		},
		Limit: 10,
	}

	tests := []struct {
		dialect  string
		expected string
	}{
		{dialect: "postgres", expected: "SELECT * FROM users WHERE age > $1 OR name ILIKE $2 LIMIT 10"},
		{dialect: "mysql", expected: "SELECT * FROM users WHERE age > ? OR name LIKE ? LIMIT 10"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			q, err := newCompiler(tt.dialect, ModeParameterized, 1000).Compile(spec)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, q.SQL)
			assert.Equal(t, []any{30, "%jo%"}, q.Args)
		})
	}
}

func TestCompileSpecDialectOverridesDefault(t *testing.T) {
	spec := revenueSpec()
	spec.Dialect = "MySQL"

	q, err := newCompiler("postgres", ModeLiteral, 0).Compile(spec)
	require.NoError(t, err)

	assert.Equal(t, types.MySQL, q.Dialect)
	assert.Contains(t, q.SQL, "coalesce(SUM(amount), 0) AS total")
	assert.NotContains(t, q.SQL, "LIMIT")
}

func TestCompileGroupByUsesTransformedExpressions(t *testing.T) {
	spec := &QuerySpec{
		Table: tableOrders,
		Columns: []types.Column{
			{Value: "created_at", Fn: types.FnYear, Alias: "yr"},
			{Value: "id", Fn: types.FnCount, Distinct: true},
		},
		GroupBy: []string{"YEAR(created_at)", "region"},
	}

	q, err := newCompiler("mysql", ModeLiteral, 0).Compile(spec)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT YEAR(created_at) AS yr, COUNT(distinct id) FROM orders GROUP BY YEAR(created_at), region",
		q.SQL,
	)
}

func TestCompileWithoutAggregatesKeepsExplicitGroupByOnly(t *testing.T) {
	spec := &QuerySpec{
		Table:   tableOrders,
		Columns: []types.Column{{Value: colStatus}},
		GroupBy: []string{colStatus},
		Having: []types.Filter{
			{Column: "id", Fn: types.FnCount, Operator: types.OpGt, Values: []types.FilterValue{{Value: 1}}},
		},
	}

	q, err := newCompiler("postgres", ModeParameterized, 0).Compile(spec)
	require.NoError(t, err)

	assert.Equal(t, "SELECT status FROM orders GROUP BY status HAVING COUNT(id) > $1", q.SQL)
	assert.Equal(t, []any{1}, q.Args)
}

func TestCompileLimitCap(t *testing.T) {
	c := newCompiler("postgres", ModeLiteral, 50)

	assert.Equal(t, uint64(50), c.limit(0))
	assert.Equal(t, uint64(50), c.limit(500))
	assert.Equal(t, uint64(7), c.limit(7))
	assert.Equal(t, uint64(500), newCompiler("postgres", ModeLiteral, 0).limit(500))
}

func TestCompileRejectsInvalidSpecs(t *testing.T) {
	c := newCompiler("postgres", ModeParameterized, 0)

	tests := []struct {
		name string
		spec *QuerySpec
	}{
		{name: "missing_table", spec: &QuerySpec{}},
		{name: "bad_operator", spec: &QuerySpec{Table: "t", Filters: []types.Filter{{Column: "a", Operator: "BETWEEN"}}}},
		{name: "bad_dialect", spec: &QuerySpec{Table: "t", Dialect: "oracle"}},
		{name: "bad_join", spec: &QuerySpec{Table: "t", Joins: []types.Join{{Type: "CROSS", Table: "u", On: "1 = 1"}}}},
		{name: "empty_group_by", spec: &QuerySpec{Table: "t", GroupBy: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestCompileUnknownDefaultDialect(t *testing.T) {
	_, err := newCompiler("oracle", ModeLiteral, 0).Compile(&QuerySpec{Table: "t"})

	assert.ErrorIs(t, err, types.ErrUnsupportedDialect)
}

func TestWithMode(t *testing.T) {
	c := newCompiler("postgres", "", 0)
	assert.Equal(t, ModeParameterized, c.Mode())

	literal, err := c.WithMode(ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, ModeLiteral, literal.Mode())
	assert.Equal(t, ModeParameterized, c.Mode(), "original compiler is unchanged")

	_, err = c.WithMode("prepared")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}
