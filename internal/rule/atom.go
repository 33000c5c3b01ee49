package rule

import (
	"fmt"
	"strings"
)

// Atom is a single relational predicate with one term per column. Polarity
// is always positive; MATILDA never emits negated atoms.
type Atom struct {
	Relation string
	Terms    []Term
}

// NewAtom builds an atom, failing if the term count does not match arity.
func NewAtom(relation string, terms []Term, arity int) (Atom, error) {
	if len(terms) != arity {
		return Atom{}, fmt.Errorf("rule: atom %s has %d terms, want arity %d", relation, len(terms), arity)
	}
	return Atom{Relation: relation, Terms: terms}, nil
}

// Arity returns the number of terms in the atom.
func (a Atom) Arity() int { return len(a.Terms) }

// Vars returns the distinct variables referenced by the atom, in term order.
func (a Atom) Vars() []VarID {
	var out []VarID
	seen := map[VarID]bool{}
	for _, t := range a.Terms {
		if v, ok := t.(Variable); ok && !seen[v.ID] {
			seen[v.ID] = true
			out = append(out, v.ID)
		}
	}
	return out
}

// String renders the atom as "relation(term, term, ...)".
func (a Atom) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s(%s)", a.Relation, strings.Join(parts, ", "))
}

// localPattern renders the atom using positionally-scoped variable indices
// (first occurrence within the atom gets v0, the next unseen var gets v1,
// and so on). Two structurally identical atoms under any variable renaming
// produce the same localPattern, which makes it a safe sort key for
// canonicalization before global variable renaming happens.
func (a Atom) localPattern() string {
	seen := map[VarID]int{}
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		switch v := t.(type) {
		case Anonymous:
			parts[i] = "_"
		case Variable:
			idx, ok := seen[v.ID]
			if !ok {
				idx = len(seen)
				seen[v.ID] = idx
			}
			parts[i] = fmt.Sprintf("v%d", idx)
		}
	}
	return a.Relation + "(" + strings.Join(parts, ",") + ")"
}
