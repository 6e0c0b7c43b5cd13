//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "errors"

// Sentinel errors for query building failures.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrUnsupportedDialect is returned when a builder or connection is requested for an unknown dialect.
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// ErrNotSelectQuery is returned when a SELECT-only operation is applied to a non-SELECT skeleton.
	ErrNotSelectQuery = errors.New("operation requires a SELECT query")

	// ErrEmptyTableName is returned when a query is rendered in parameterized mode without a table.
	ErrEmptyTableName = errors.New("table name cannot be empty")

	// ErrDialectMismatch is returned when a query compiled for one dialect is sent to a database of another.
	ErrDialectMismatch = errors.New("query dialect does not match database")
)
