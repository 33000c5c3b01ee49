package rule

import (
	"fmt"
	"sort"
)

// Rule is a candidate tuple-generating dependency: an unordered multiset of
// body atoms implying an unordered multiset of head atoms, with a marked
// set of existential head variables (head variables absent from the body).
type Rule struct {
	Body        []Atom
	Head        []Atom
	Existential map[VarID]bool
}

// Limits bounds the shape of a rule, mirroring the algorithm.max_table and
// algorithm.max_vars configuration keys.
type Limits struct {
	MaxTable int
	MaxVars  int
}

// Vars returns every distinct variable occurring in the rule, in
// first-occurrence order across body then head.
func (r *Rule) Vars() []VarID {
	var out []VarID
	seen := map[VarID]bool{}
	for _, a := range r.Body {
		for _, v := range a.Vars() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	for _, a := range r.Head {
		for _, v := range a.Vars() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// AtomCount returns the total number of atoms (body plus head).
func (r *Rule) AtomCount() int { return len(r.Body) + len(r.Head) }

// Finalize builds a well-formed Rule from raw body/head atoms: it rewrites
// singleton body variables (those occurring in exactly one term position
// across the whole rule) to Anonymous, keeps every head variable, marks the
// head variables absent from the body as existential, and checks the
// structural invariants from the data model (non-empty body/head and the
// configured max_table / max_vars bounds, counting existentials).
func Finalize(body, head []Atom, limits Limits) (*Rule, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("rule: body must be non-empty")
	}
	if len(head) == 0 {
		return nil, fmt.Errorf("rule: head must be non-empty")
	}
	if len(body)+len(head) > limits.MaxTable {
		return nil, fmt.Errorf("rule: %d atoms exceeds max_table %d", len(body)+len(head), limits.MaxTable)
	}

	counts := map[VarID]int{}
	for _, a := range body {
		for _, v := range a.Vars() {
			counts[v]++
		}
	}
	for _, a := range head {
		for _, v := range a.Vars() {
			counts[v]++
		}
	}

	// A head variable that occurs only once is absent from the body, so it
	// is kept as an existential rather than anonymized.
	rewrite := func(atoms []Atom, anonymizeSingletons bool) []Atom {
		out := make([]Atom, len(atoms))
		for i, a := range atoms {
			terms := make([]Term, len(a.Terms))
			for j, t := range a.Terms {
				if v, ok := t.(Variable); ok && anonymizeSingletons && counts[v.ID] < 2 {
					terms[j] = Anonymous{}
				} else {
					terms[j] = t
				}
			}
			out[i] = Atom{Relation: a.Relation, Terms: terms}
		}
		return out
	}

	r := &Rule{
		Body: rewrite(body, true),
		Head: rewrite(head, false),
	}

	bodyVars := map[VarID]bool{}
	for _, a := range r.Body {
		for _, v := range a.Vars() {
			bodyVars[v] = true
		}
	}

	r.Existential = map[VarID]bool{}
	for _, a := range r.Head {
		for _, v := range a.Vars() {
			if !bodyVars[v] {
				r.Existential[v] = true
			}
		}
	}

	distinctVars := map[VarID]bool{}
	for v := range bodyVars {
		distinctVars[v] = true
	}
	for v := range r.Existential {
		distinctVars[v] = true
	}
	if len(distinctVars) > limits.MaxVars {
		return nil, fmt.Errorf("rule: %d variables exceeds max_vars %d", len(distinctVars), limits.MaxVars)
	}

	return r, nil
}

// IsTrivialTautology applies the enumerator's cheap body-supersedes-head
// check: a head atom that carries no variable at all (every position is
// Anonymous) adds no constraint beyond "some row exists in that relation",
// which is true of almost every table and not worth reporting.
func (r *Rule) IsTrivialTautology() bool {
	for _, a := range r.Head {
		for _, t := range a.Terms {
			if IsVariable(t) {
				return false
			}
		}
	}
	return true
}

// sortedCopy returns atoms ordered by their localPattern, which is a
// renaming-invariant sort key (see Atom.localPattern).
func sortedCopy(atoms []Atom) []Atom {
	out := make([]Atom, len(atoms))
	copy(out, atoms)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].localPattern() < out[j].localPattern()
	})
	return out
}
