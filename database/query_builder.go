// Package database compiles dialect-agnostic query descriptions into SQL and
// connects to the databases that run them.
package database

import (
	"github.com/gaborage/dbworkbench/database/internal/builder"
	"github.com/gaborage/dbworkbench/database/types"
)

type (
	// QueryBuilder is bound to one dialect and creates SELECT builders for it.
	QueryBuilder = builder.QueryBuilder
	// SelectQueryBuilder is an immutable SELECT under construction.
	SelectQueryBuilder = builder.SelectQueryBuilder
	// Skeleton is the accumulated state of a SelectQueryBuilder.
	Skeleton = builder.Skeleton
	// Condition is one WHERE or HAVING entry of a Skeleton.
	Condition = builder.Condition
)

// NewQueryBuilder creates a query builder for the named dialect.
// Names are case-insensitive and "postgresql" is accepted for PostgreSQL.
// Unknown names fail with types.ErrUnsupportedDialect.
func NewQueryBuilder(dialect string) (*QueryBuilder, error) {
	d, err := types.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	return builder.NewQueryBuilder(d)
}

// SupportedDialects lists the dialects NewQueryBuilder accepts.
func SupportedDialects() []Dialect {
	return types.SupportedDialects()
}
