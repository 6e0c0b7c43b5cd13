package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input    string
		expected Dialect
	}{
		{"mysql", MySQL},
		{"MySQL", MySQL},
		{"postgres", PostgreSQL},
		{"postgresql", PostgreSQL},
		{" Postgres ", PostgreSQL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDialect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
			assert.True(t, d.IsValid())
		})
	}
}

func TestParseDialectUnsupported(t *testing.T) {
	for _, input := range []string{"", "oracle", "sqlite"} {
		_, err := ParseDialect(input)
		assert.ErrorIs(t, err, ErrUnsupportedDialect, input)
	}
}

func TestSupportedDialects(t *testing.T) {
	assert.Equal(t, []Dialect{MySQL, PostgreSQL}, SupportedDialects())
	assert.False(t, Dialect("oracle").IsValid())
	assert.Equal(t, "postgres", PostgreSQL.String())
}

func TestColumnFunctionClassification(t *testing.T) {
	for _, fn := range ColumnFunctions() {
		assert.True(t, fn.IsKnown(), fn)
	}
	assert.True(t, ColumnFunction("SUM").IsAggregate())
	assert.False(t, ColumnFunction("YEAR").IsAggregate())
	assert.False(t, ColumnFunction("sum").IsKnown())
}

func TestFilterIsEnabled(t *testing.T) {
	disabled := false
	enabled := true

	assert.True(t, Filter{}.IsEnabled())
	assert.True(t, Filter{Enabled: &enabled}.IsEnabled())
	assert.False(t, Filter{Enabled: &disabled}.IsEnabled())
}

func TestJoinSQL(t *testing.T) {
	j := Join{Type: LeftJoin, Table: "customers", Alias: "c", On: "c.id = o.customer_id"}
	assert.Equal(t, "LEFT JOIN customers c ON c.id = o.customer_id", j.SQL())

	j.Alias = ""
	assert.Equal(t, "LEFT JOIN customers ON c.id = o.customer_id", j.SQL())
}
