package catalog

import (
	"context"
	"database/sql"
)

// Dialect abstracts the engine-specific introspection and quoting rules
// needed to build a Catalog and later compile SQL in the validator. SQLite,
// MySQL and PostgreSQL are the three minimum targets named by the external
// interfaces spec; only the SQLite dialect ships here, the others plug into
// the same seam.
type Dialect interface {
	// ListTables returns base table names, introspection-only.
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)
	// ListColumns returns the columns of table in declaration order.
	ListColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error)
	// QuoteIdent quotes a table/column identifier for safe interpolation
	// into generated SQL (never used for values, only identifiers, which
	// database/sql driver parameters cannot represent).
	QuoteIdent(name string) string
	// Placeholder renders the i-th (1-based) bind parameter marker.
	Placeholder(i int) string
}
