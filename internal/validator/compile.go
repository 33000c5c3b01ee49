// Package validator translates a candidate rule into SQL, counts support
// and body∧head witnesses, and derives a Verdict per the support/confidence
// formulas in the data model.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/rule"
)

type colRef struct {
	alias  string
	column string
}

// compiledBody holds the FROM/WHERE fragments shared by the support query
// and the body∧head query, plus where each body variable first landed.
type compiledBody struct {
	from            string
	where           []string
	firstOccurrence map[rule.VarID]colRef
	projection      []string // SELECT COUNT(DISTINCT ...) column list, one per variable shared across >=2 body positions
}

func compileBodyAtoms(cat *catalog.Catalog, dialect catalog.Dialect, atoms []rule.Atom, aliasOffset int) (compiledBody, error) {
	cb := compiledBody{firstOccurrence: map[rule.VarID]colRef{}}
	occurrences := map[rule.VarID]int{}
	var fromParts []string

	for i, a := range atoms {
		rel, ok := cat.Relation(a.Relation)
		if !ok {
			return compiledBody{}, fmt.Errorf("validator: unknown relation %q", a.Relation)
		}
		alias := fmt.Sprintf("t%d", aliasOffset+i)
		fromParts = append(fromParts, fmt.Sprintf("%s AS %s", dialect.QuoteIdent(a.Relation), alias))

		for pos, term := range a.Terms {
			v, ok := term.(rule.Variable)
			if !ok {
				continue
			}
			if pos >= len(rel.Columns) {
				return compiledBody{}, fmt.Errorf("validator: term position %d out of range for relation %q", pos, a.Relation)
			}
			col := rel.Columns[pos].Name
			ref := colRef{alias: alias, column: col}
			occurrences[v.ID]++
			if first, seen := cb.firstOccurrence[v.ID]; seen {
				cb.where = append(cb.where, fmt.Sprintf("%s.%s = %s.%s",
					first.alias, dialect.QuoteIdent(first.column), ref.alias, dialect.QuoteIdent(ref.column)))
			} else {
				cb.firstOccurrence[v.ID] = ref
			}
		}
	}

	cb.from = strings.Join(fromParts, ", ")

	// Only a variable that recurs across >=2 body positions is "shared" per
	// the SQL compilation rule; a variable occurring once contributes no
	// join and dedupes nothing, so it stays out of the projection and the
	// support/body-and-head queries fall back to COUNT(*).
	//
	// Deterministic projection order: sort by variable id so repeated
	// compilations of the same rule always produce byte-identical SQL.
	ids := make([]rule.VarID, 0, len(cb.firstOccurrence))
	for id, n := range occurrences {
		if n < 2 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		ref := cb.firstOccurrence[id]
		cb.projection = append(cb.projection, fmt.Sprintf("%s.%s", ref.alias, dialect.QuoteIdent(ref.column)))
	}

	return cb, nil
}

// compileHeadExists builds "EXISTS (SELECT 1 FROM head0 AS u0, ... WHERE
// <head-internal joins> AND <correlation to body>)" for the whole head
// conjunction, existentially quantified over every head variable as a
// single unit, per the data model's ∃ȳ semantics.
func compileHeadExists(cat *catalog.Catalog, dialect catalog.Dialect, head []rule.Atom, bodyFirst map[rule.VarID]colRef) (string, error) {
	var fromParts []string
	var whereParts []string
	localFirst := map[rule.VarID]colRef{}

	for i, a := range head {
		rel, ok := cat.Relation(a.Relation)
		if !ok {
			return "", fmt.Errorf("validator: unknown relation %q", a.Relation)
		}
		alias := fmt.Sprintf("u%d", i)
		fromParts = append(fromParts, fmt.Sprintf("%s AS %s", dialect.QuoteIdent(a.Relation), alias))

		for pos, term := range a.Terms {
			v, ok := term.(rule.Variable)
			if !ok {
				continue
			}
			col := rel.Columns[pos].Name
			ref := colRef{alias: alias, column: col}

			if bref, inBody := bodyFirst[v.ID]; inBody {
				whereParts = append(whereParts, fmt.Sprintf("%s.%s = %s.%s",
					ref.alias, dialect.QuoteIdent(ref.column), bref.alias, dialect.QuoteIdent(bref.column)))
				continue
			}
			if lref, seen := localFirst[v.ID]; seen {
				whereParts = append(whereParts, fmt.Sprintf("%s.%s = %s.%s",
					lref.alias, dialect.QuoteIdent(lref.column), ref.alias, dialect.QuoteIdent(ref.column)))
			} else {
				localFirst[v.ID] = ref
			}
		}
	}

	sql := "SELECT 1 FROM " + strings.Join(fromParts, ", ")
	if len(whereParts) > 0 {
		sql += " WHERE " + strings.Join(whereParts, " AND ")
	}
	return "EXISTS (" + sql + ")", nil
}

// headSharesNoVariable reports whether every head atom's variables are
// purely existential (none of them also occur in the body), the degenerate
// case from the design notes' open question where EXISTS holds for every
// body binding as soon as the head relation is non-empty.
func headSharesNoVariable(head []rule.Atom, bodyFirst map[rule.VarID]colRef) bool {
	for _, a := range head {
		for _, v := range a.Vars() {
			if _, ok := bodyFirst[v]; ok {
				return false
			}
		}
	}
	return true
}

// countExpr renders the COUNT(...) argument: DISTINCT over the
// shared-variable tuple when the body has one, else "*" -- a body with no
// variable shared across positions has no binding tuple narrower than its
// own rows.
func countExpr(cb compiledBody) string {
	if len(cb.projection) == 0 {
		return "*"
	}
	return "DISTINCT " + strings.Join(cb.projection, ", ")
}

// supportSQL renders "SELECT COUNT(...) FROM ... [WHERE ...]" for the body
// alone.
func supportSQL(cb compiledBody) string {
	sql := fmt.Sprintf("SELECT COUNT(%s) FROM %s", countExpr(cb), cb.from)
	if len(cb.where) > 0 {
		sql += " WHERE " + strings.Join(cb.where, " AND ")
	}
	return sql
}

// bodyAndHeadSQL renders the same projection/FROM/WHERE as supportSQL, with
// the head's EXISTS clause appended as an additional WHERE condition.
func bodyAndHeadSQL(cb compiledBody, existsClause string) string {
	sql := fmt.Sprintf("SELECT COUNT(%s) FROM %s", countExpr(cb), cb.from)
	clauses := append(append([]string{}, cb.where...), existsClause)
	sql += " WHERE " + strings.Join(clauses, " AND ")
	return sql
}
