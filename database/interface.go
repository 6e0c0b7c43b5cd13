package database

import (
	"github.com/gaborage/dbworkbench/database/types"
)

// Interface is the live database connection compiled queries run against.
type Interface = types.Interface

// Dialect names a supported SQL dialect.
type Dialect = types.Dialect

// Supported dialects.
const (
	MySQL      = types.MySQL
	PostgreSQL = types.PostgreSQL
)

// Query description types accepted by the builder.
type (
	Column         = types.Column
	ColumnFunction = types.ColumnFunction
	Filter         = types.Filter
	FilterValue    = types.FilterValue
	Operator       = types.Operator
	Connector      = types.Connector
	Join           = types.Join
	JoinType       = types.JoinType
	OrderBy        = types.OrderBy
	Direction      = types.Direction
)
