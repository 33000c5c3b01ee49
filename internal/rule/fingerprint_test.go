package rule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, body, head []Atom) *Rule {
	t.Helper()
	r, err := Finalize(body, head, Limits{MaxTable: 10, MaxVars: 10})
	require.NoError(t, err)
	return r
}

// TestFingerprintStableUnderRenaming checks invariant 1 from the testable
// properties: fingerprint(R) == fingerprint(pi(R)) for any permutation pi
// of R's variable names.
func TestFingerprintStableUnderRenaming(t *testing.T) {
	body := []Atom{
		{Relation: "enrollment", Terms: []Term{Anonymous{}, Variable{ID: 1}, Anonymous{}}},
	}
	head := []Atom{
		{Relation: "student", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}, Variable{ID: 3}, Variable{ID: 4}}},
	}
	r1 := mustRule(t, body, head)

	// Permute every variable id by adding a large offset, which simulates an
	// independent run of the enumerator assigning different fresh ids.
	renamed := func(atoms []Atom, offset VarID) []Atom {
		out := make([]Atom, len(atoms))
		for i, a := range atoms {
			terms := make([]Term, len(a.Terms))
			for j, tm := range a.Terms {
				if v, ok := tm.(Variable); ok {
					terms[j] = Variable{ID: v.ID + offset}
				} else {
					terms[j] = Anonymous{}
				}
			}
			out[i] = Atom{Relation: a.Relation, Terms: terms}
		}
		return out
	}

	body2 := renamed(body, 1000)
	head2 := renamed(head, 1000)
	r2 := mustRule(t, body2, head2)

	require.Equal(t, r1.Fingerprint(), r2.Fingerprint())
}

func TestFingerprintDiffersForDifferentRules(t *testing.T) {
	r1 := mustRule(t, []Atom{
		{Relation: "a", Terms: []Term{Variable{ID: 1}}},
	}, []Atom{
		{Relation: "b", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}}},
	})
	r2 := mustRule(t, []Atom{
		{Relation: "a", Terms: []Term{Variable{ID: 1}}},
	}, []Atom{
		{Relation: "c", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}}},
	})
	require.NotEqual(t, r1.Fingerprint(), r2.Fingerprint())
}

func TestFinalizeRewritesSingletons(t *testing.T) {
	body := []Atom{
		{Relation: "a", Terms: []Term{Variable{ID: 1}, Variable{ID: 99}}},
	}
	head := []Atom{
		{Relation: "b", Terms: []Term{Variable{ID: 1}}},
	}
	r := mustRule(t, body, head)
	// Variable{99} occurs once only and must have been rewritten to Anonymous.
	require.IsType(t, Anonymous{}, r.Body[0].Terms[1])
}

func TestFinalizeRejectsEmptyBodyOrHead(t *testing.T) {
	_, err := Finalize(nil, []Atom{{Relation: "a", Terms: []Term{Anonymous{}}}}, Limits{MaxTable: 5, MaxVars: 5})
	require.Error(t, err)

	_, err = Finalize([]Atom{{Relation: "a", Terms: []Term{Anonymous{}}}}, nil, Limits{MaxTable: 5, MaxVars: 5})
	require.Error(t, err)
}

func TestFinalizeExistentialDetection(t *testing.T) {
	body := []Atom{{Relation: "enrollment", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}}}}
	head := []Atom{{Relation: "student", Terms: []Term{Variable{ID: 2}, Variable{ID: 3}, Variable{ID: 4}, Variable{ID: 5}}}}
	r := mustRule(t, body, head)
	require.True(t, r.Existential[3])
	require.True(t, r.Existential[4])
	require.True(t, r.Existential[5])
	require.False(t, r.Existential[2])
}

func TestFinalizeMaxVarsExceeded(t *testing.T) {
	body := []Atom{{Relation: "a", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}}}}
	head := []Atom{{Relation: "b", Terms: []Term{Variable{ID: 2}, Variable{ID: 3}, Variable{ID: 4}}}}
	_, err := Finalize(body, head, Limits{MaxTable: 5, MaxVars: 2})
	require.Error(t, err)
}

func TestTGDStringFormat(t *testing.T) {
	// Constructed directly (not through Finalize) since this is purely a
	// rendering test: R1's first variable occurs only once here, which the
	// data model's singleton rule would normally anonymize, but the wire
	// format example in the external interfaces spec renders it as "x".
	body := []Atom{
		{Relation: "R1", Terms: []Term{Variable{ID: 1}, Variable{ID: 2}}},
		{Relation: "R2", Terms: []Term{Variable{ID: 2}, Anonymous{}, Variable{ID: 3}}},
	}
	head := []Atom{
		{Relation: "R3", Terms: []Term{Variable{ID: 3}, Variable{ID: 4}}},
	}
	r := &Rule{Body: body, Head: head, Existential: map[VarID]bool{4: true}}
	got := r.TGDString()
	require.Equal(t, "R1(x, y) ∧ R2(y, _, z) → ∃w. R3(z, w)", got)
}
