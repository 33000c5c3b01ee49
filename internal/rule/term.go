// Package rule defines the typed, hashable intermediate representation of
// candidate tuple-generating dependencies: terms, atoms, rules and their
// canonical fingerprints.
package rule

import "fmt"

// VarID identifies a variable within a single rule. Variables are scoped to
// the rule that declares them; there is no cross-rule identity.
type VarID uint32

// Term is either a Variable or Anonymous ("_"). It is a closed sum type:
// no other implementation exists, so a type switch over Term is exhaustive.
type Term interface {
	isTerm()
	String() string
}

// Variable is a symbolic placeholder bound to a column position.
type Variable struct {
	ID VarID
}

func (Variable) isTerm() {}

func (v Variable) String() string { return fmt.Sprintf("?%d", v.ID) }

// Anonymous marks a don't-care position ("_"): a value must exist there but
// it participates in no join and is never reported.
type Anonymous struct{}

func (Anonymous) isTerm() {}

func (Anonymous) String() string { return "_" }

// IsVariable reports whether t is a Variable.
func IsVariable(t Term) bool {
	_, ok := t.(Variable)
	return ok
}
