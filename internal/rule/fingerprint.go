package rule

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Fingerprint is the canonical, renaming-invariant key for a rule: two
// rules with equal fingerprints are isomorphic and must be collapsed by
// the deduper.
type Fingerprint [sha256.Size]byte

// String renders the fingerprint as a hex string, mostly for logging.
func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:8]) }

// canonicalize sorts atoms by their local (renaming-invariant) pattern
// and then relabels every variable to its first-occurrence index in that
// sorted order. The same traversal is applied across body then head so the
// variable numbering is shared between them.
func canonicalize(body, head []Atom) (cBody, cHead []Atom, order []VarID) {
	sBody := sortedCopy(body)
	sHead := sortedCopy(head)

	rename := map[VarID]VarID{}
	next := VarID(0)
	assign := func(atoms []Atom) []Atom {
		out := make([]Atom, len(atoms))
		for i, a := range atoms {
			terms := make([]Term, len(a.Terms))
			for j, t := range a.Terms {
				if v, ok := t.(Variable); ok {
					id, ok := rename[v.ID]
					if !ok {
						id = next
						rename[v.ID] = id
						order = append(order, v.ID)
						next++
					}
					terms[j] = Variable{ID: id}
				} else {
					terms[j] = Anonymous{}
				}
			}
			out[i] = Atom{Relation: a.Relation, Terms: terms}
		}
		return out
	}

	cBody = assign(sBody)
	cHead = assign(sHead)
	return cBody, cHead, order
}

// Fingerprint computes the rule's canonical fingerprint per the data model:
// sort atoms lexicographically by (relation, term-pattern), then rename
// variables to their first-occurrence index in that canonical order.
func (r *Rule) Fingerprint() Fingerprint {
	cBody, cHead, order := canonicalize(r.Body, r.Head)

	rename := map[VarID]VarID{}
	for i, v := range order {
		rename[v] = VarID(i)
	}

	var sb strings.Builder
	writeAtoms := func(atoms []Atom) {
		for _, a := range atoms {
			sb.WriteString(a.String())
			sb.WriteByte(';')
		}
		sb.WriteByte('|')
	}
	writeAtoms(cBody)
	writeAtoms(cHead)

	sb.WriteString("exist:")
	existIdx := make([]int, 0, len(r.Existential))
	for v := range r.Existential {
		if id, ok := rename[v]; ok {
			existIdx = append(existIdx, int(id))
		}
	}
	sortInts(existIdx)
	for _, id := range existIdx {
		fmt.Fprintf(&sb, "%d,", id)
	}

	return sha256.Sum256([]byte(sb.String()))
}

// PrefixFingerprint canonicalizes a plain atom multiset with no body/head
// split, for the enumerator's partial-chain "seen" dedup: two DFS prefixes
// that are isomorphic up to variable renaming collapse to the same key.
func PrefixFingerprint(atoms []Atom) Fingerprint {
	sorted := sortedCopy(atoms)
	rename := map[VarID]VarID{}
	next := VarID(0)

	var sb strings.Builder
	for _, a := range sorted {
		sb.WriteString(a.Relation)
		sb.WriteByte('(')
		for i, t := range a.Terms {
			if i > 0 {
				sb.WriteByte(',')
			}
			if v, ok := t.(Variable); ok {
				id, ok := rename[v.ID]
				if !ok {
					id = next
					rename[v.ID] = id
					next++
				}
				fmt.Fprintf(&sb, "v%d", id)
			} else {
				sb.WriteByte('_')
			}
		}
		sb.WriteString(");")
	}
	return sha256.Sum256([]byte(sb.String()))
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
