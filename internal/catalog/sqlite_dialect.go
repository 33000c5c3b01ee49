package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteDialect introspects schema through sqlite_master and PRAGMA
// table_info, the standard mechanism for the mattn/go-sqlite3 driver.
type SQLiteDialect struct{}

var _ Dialect = SQLiteDialect{}

func (SQLiteDialect) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("catalog: scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (d SQLiteDialect) ListColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	// table_info is a PRAGMA, not ordinary DML; the table name cannot be
	// bound as a parameter, so it is validated against sqlite_master by
	// ListTables before ever reaching here and is quoted defensively.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("catalog: table_info(%s): %w", table, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("catalog: scan table_info row: %w", err)
		}
		out = append(out, Column{Name: name, Domain: NormalizeDomain(declType)})
	}
	return out, rows.Err()
}

func (SQLiteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLiteDialect) Placeholder(i int) string {
	return "?"
}
