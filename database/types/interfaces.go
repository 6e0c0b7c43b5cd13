// Package types contains the core query and database interface definitions for dbworkbench.
// These types are separate from the main database package to avoid import cycles
// and to make them easily accessible for mocking and testing.
//
//nolint:revive // Package name "types" is intentionally generic to avoid circular
package types

import (
	"context"
	"database/sql"
)

// Interface defines the database operations the workbench needs from a live connection.
// Compiled SQL is sent through Query; the caller is responsible for closing the returned rows.
type Interface interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Health and diagnostics
	Health(ctx context.Context) error
	Stats() map[string]any

	// Dialect reports which SQL dialect the connection speaks.
	Dialect() Dialect

	Close() error
}
