// Package catalog introspects a SQL schema once at startup and exposes it
// as the immutable, read-only Relation/Column model the rest of MATILDA's
// discovery core builds on.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/matilda-discovery/matilda/internal/queryengine"
)

// Column is one field of a Relation.
type Column struct {
	Name   string
	Domain Domain
}

// Relation is an immutable table schema: a name and an ordered column list.
type Relation struct {
	Name    string
	Columns []Column
}

// Arity returns the number of columns in the relation.
func (r *Relation) Arity() int { return len(r.Columns) }

// ColumnStats holds the sampled statistics used to estimate cross-column
// value overlap for the constraint graph.
type ColumnStats struct {
	RowCount      uint64
	DistinctCount uint64
	// SampleHashes is a bounded reservoir of hashes of observed values,
	// used only to estimate overlap; it is never a correctness source.
	SampleHashes []uint64
}

// Catalog is the read-only schema + statistics snapshot built once at
// startup by Load and shared by every downstream component.
type Catalog struct {
	order     []string // relation names, in deterministic (alphabetical) order
	relations map[string]*Relation
	stats     map[columnKey]*ColumnStats
}

type columnKey struct {
	relation string
	column   string
}

// Relations returns relation names in deterministic order.
func (c *Catalog) Relations() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Relation looks up a relation by name.
func (c *Catalog) Relation(name string) (*Relation, bool) {
	r, ok := c.relations[name]
	return r, ok
}

// Stats returns the sampled statistics for (relation, column).
func (c *Catalog) Stats(relation, column string) (*ColumnStats, bool) {
	s, ok := c.stats[columnKey{relation, column}]
	return s, ok
}

// LoadOptions configures catalog construction.
type LoadOptions struct {
	// SampleSize bounds the per-column value-hash reservoir.
	SampleSize int
}

// DefaultLoadOptions is the sampling configuration discovery.Run loads the
// catalog with, and the fallback Load uses when SampleSize is not positive.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{SampleSize: 256}
}

// Load introspects every base table reachable through dialect and db,
// sampling per-column statistics through the parameterized QueryEngine.
// It never issues DDL and never string-concatenates user-controlled values
// into SQL text.
func Load(ctx context.Context, db *sql.DB, dialect Dialect, eng *queryengine.Engine, opts LoadOptions, log *zap.Logger) (*Catalog, error) {
	if opts.SampleSize <= 0 {
		opts = DefaultLoadOptions()
	}

	tables, err := dialect.ListTables(ctx, db)
	if err != nil {
		return nil, &queryengine.Error{Kind: queryengine.KindSchema, Op: "list_tables", Err: err}
	}
	sort.Strings(tables)

	cat := &Catalog{
		order:     tables,
		relations: make(map[string]*Relation, len(tables)),
		stats:     make(map[columnKey]*ColumnStats),
	}

	for _, table := range tables {
		cols, err := dialect.ListColumns(ctx, db, table)
		if err != nil {
			return nil, &queryengine.Error{Kind: queryengine.KindSchema, Op: "list_columns", SQL: table, Err: err}
		}
		if len(cols) == 0 {
			return nil, &queryengine.Error{Kind: queryengine.KindSchema, Op: "list_columns", SQL: table, Err: fmt.Errorf("relation %s has no columns", table)}
		}
		cat.relations[table] = &Relation{Name: table, Columns: cols}

		rowCount, err := eng.Count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", dialect.QuoteIdent(table)), nil)
		if err != nil {
			return nil, err
		}

		for _, col := range cols {
			st := &ColumnStats{RowCount: rowCount}

			dc, err := eng.CountDistinct(ctx, []string{dialect.QuoteIdent(col.Name)},
				fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", dialect.QuoteIdent(col.Name), dialect.QuoteIdent(table)), nil)
			if err != nil {
				return nil, err
			}
			st.DistinctCount = dc

			hashes, err := eng.SampleValues(ctx, table, col.Name, opts.SampleSize)
			if err != nil {
				return nil, err
			}
			for h := range hashes {
				st.SampleHashes = append(st.SampleHashes, h)
			}

			cat.stats[columnKey{table, col.Name}] = st
			if log != nil {
				log.Debug("sampled column",
					zap.String("table", table), zap.String("column", col.Name),
					zap.Uint64("rows", rowCount), zap.Uint64("distinct", dc))
			}
		}
	}

	return cat, nil
}
