//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"fmt"
	"strings"
)

// Dialect identifies the target database's SQL syntax variant.
// The set is closed; use ParseDialect to obtain one from user input.
type Dialect string

const (
	MySQL      Dialect = "mysql"
	PostgreSQL Dialect = "postgres"
)

// SupportedDialects returns every dialect the query builder can target, in a stable order.
func SupportedDialects() []Dialect {
	return []Dialect{MySQL, PostgreSQL}
}

// ParseDialect converts a dialect tag into a Dialect.
// Matching is case-insensitive and "postgresql" is accepted as an alias of "postgres".
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(MySQL):
		return MySQL, nil
	case string(PostgreSQL), "postgresql":
		return PostgreSQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
}

// IsValid reports whether d is one of the supported dialects.
func (d Dialect) IsValid() bool {
	return d == MySQL || d == PostgreSQL
}

func (d Dialect) String() string {
	return string(d)
}
