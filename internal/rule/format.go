package rule

import (
	"strconv"
	"strings"
)

var letterNames = []string{"x", "y", "z", "w", "v", "u", "t", "s", "r", "q", "p", "n", "m"}

// varName returns a short display name for the i-th variable encountered,
// falling back to "x<i>" once the letter alphabet is exhausted.
func varName(i int) string {
	if i < len(letterNames) {
		return letterNames[i]
	}
	return "x" + strconv.Itoa(i)
}

// TGDString renders the rule using the wire format from the external
// interfaces spec: "R1(x, y) ∧ R2(y, _, z) → ∃w. R3(z, w)", naming
// variables in first-occurrence order (body, then head) and prefixing the
// head with an existential quantifier only when it introduces fresh
// variables.
func (r *Rule) TGDString() string {
	names := map[VarID]string{}
	nextName := 0
	nameOf := func(v VarID) string {
		n, ok := names[v]
		if !ok {
			n = varName(nextName)
			names[v] = n
			nextName++
		}
		return n
	}

	render := func(a Atom) string {
		parts := make([]string, len(a.Terms))
		for i, t := range a.Terms {
			switch v := t.(type) {
			case Variable:
				parts[i] = nameOf(v.ID)
			default:
				parts[i] = "_"
			}
		}
		return a.Relation + "(" + strings.Join(parts, ", ") + ")"
	}

	bodyParts := make([]string, len(r.Body))
	for i, a := range r.Body {
		bodyParts[i] = render(a)
	}

	// Existentials must be named before the remaining head variables so the
	// quantifier prefix lists them in the order they are about to appear.
	var existNames []string
	for _, a := range r.Head {
		for _, v := range a.Vars() {
			if r.Existential[v] {
				if _, already := names[v]; !already {
					existNames = append(existNames, nameOf(v))
				}
			}
		}
	}

	headParts := make([]string, len(r.Head))
	for i, a := range r.Head {
		headParts[i] = render(a)
	}

	head := strings.Join(headParts, " ∧ ")
	if len(existNames) > 0 {
		head = "∃" + strings.Join(existNames, ",") + ". " + head
	}

	return strings.Join(bodyParts, " ∧ ") + " → " + head
}

// BodyStrings and HeadStrings render each atom independently, matching the
// results.json "body"/"head" string-array fields.
func (r *Rule) BodyStrings() []string { return renderAtoms(r.Body, r) }
func (r *Rule) HeadStrings() []string { return renderAtoms(r.Head, r) }

func renderAtoms(atoms []Atom, r *Rule) []string {
	names := map[VarID]string{}
	nextName := 0
	for _, a := range r.Body {
		for _, v := range a.Vars() {
			if _, ok := names[v]; !ok {
				names[v] = varName(nextName)
				nextName++
			}
		}
	}
	for _, a := range r.Head {
		for _, v := range a.Vars() {
			if _, ok := names[v]; !ok {
				names[v] = varName(nextName)
				nextName++
			}
		}
	}

	out := make([]string, len(atoms))
	for i, a := range atoms {
		parts := make([]string, len(a.Terms))
		for j, t := range a.Terms {
			if v, ok := t.(Variable); ok {
				parts[j] = names[v.ID]
			} else {
				parts[j] = "_"
			}
		}
		out[i] = a.Relation + "(" + strings.Join(parts, ", ") + ")"
	}
	return out
}
