package builder

import (
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/gaborage/dbworkbench/database/types"
)

// likeKeyword returns the pattern-match keyword for the LIKE operator.
// PostgreSQL matches case-insensitively with ILIKE; other dialects use LIKE.
func likeKeyword(dialect dbtypes.Dialect) string {
	switch dialect {
	case dbtypes.PostgreSQL:
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// notLikeKeyword returns the pattern-match keyword for the NOT LIKE operator.
// Only PostgreSQL gets a negated form. MySQL renders plain LIKE, so a MySQL NOT LIKE
// filter matches the same rows as LIKE; existing MySQL output depends on this.
func notLikeKeyword(dialect dbtypes.Dialect) string {
	switch dialect {
	case dbtypes.PostgreSQL:
		return "NOT ILIKE"
	default:
		return "LIKE"
	}
}

// placeholderFormat returns the bind-parameter style used by the parameterized renderer.
func placeholderFormat(dialect dbtypes.Dialect) squirrel.PlaceholderFormat {
	switch dialect {
	case dbtypes.PostgreSQL:
		// PostgreSQL uses $1, $2, ... placeholders
		return squirrel.Dollar
	default:
		return squirrel.Question
	}
}

// escapeVerbatim doubles every ? in text that reaches squirrel unparsed (raw conditions,
// joins, identifiers) so positional formats keep it as a literal ?. The ? format leaves
// the statement untouched, so MySQL text is returned as is.
func escapeVerbatim(dialect dbtypes.Dialect, text string) string {
	if dialect != dbtypes.PostgreSQL {
		return text
	}
	return strings.ReplaceAll(text, "?", "??")
}
