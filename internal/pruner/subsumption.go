package pruner

import "github.com/matilda-discovery/matilda/internal/rule"

// subsumes reports whether general subsumes specific: general's head is
// structurally identical to specific's head under some variable renaming,
// and general's body embeds into specific's body under that same renaming
// (specific's body is a super-multiset of general's). A subsuming rule is
// weaker or equally constrained, so a more specific candidate adds nothing
// over an already-accepted general one.
func subsumes(general, specific *rule.Rule) bool {
	if len(general.Body) > len(specific.Body) {
		return false
	}
	if len(general.Head) != len(specific.Head) {
		return false
	}

	return matchAtomSet(general.Head, specific.Head, map[rule.VarID]rule.VarID{}, func(mapping map[rule.VarID]rule.VarID) bool {
		used := make([]bool, len(specific.Body))
		return embedBody(general.Body, specific.Body, used, mapping)
	})
}

// matchAtomSet tries every bijection between gAtoms and a same-size subset
// of sAtoms (here len(gAtoms) == len(sAtoms), the head case), extending
// mapping consistently, and calls cont with the resulting mapping on
// success. gAtoms and sAtoms are small (bounded by max_table), so brute
// backtracking is cheap.
func matchAtomSet(gAtoms, sAtoms []rule.Atom, mapping map[rule.VarID]rule.VarID, cont func(map[rule.VarID]rule.VarID) bool) bool {
	if len(gAtoms) == 0 {
		return cont(mapping)
	}
	g := gAtoms[0]
	for i, s := range sAtoms {
		next, ok := extendMapping(g, s, mapping)
		if !ok {
			continue
		}
		rest := append(append([]rule.Atom{}, sAtoms[:i]...), sAtoms[i+1:]...)
		if matchAtomSet(gAtoms[1:], rest, next, cont) {
			return true
		}
	}
	return false
}

// embedBody tries to find, for every general body atom, a distinct
// not-yet-used specific body atom it maps onto under mapping (extending it
// as needed), so that general's body is contained in specific's body.
func embedBody(gAtoms, sAtoms []rule.Atom, used []bool, mapping map[rule.VarID]rule.VarID) bool {
	if len(gAtoms) == 0 {
		return true
	}
	g := gAtoms[0]
	for i, s := range sAtoms {
		if used[i] {
			continue
		}
		next, ok := extendMapping(g, s, mapping)
		if !ok {
			continue
		}
		used[i] = true
		if embedBody(gAtoms[1:], sAtoms, used, next) {
			return true
		}
		used[i] = false
	}
	return false
}

// extendMapping checks whether g can be matched onto s given the current
// variable mapping, returning the (possibly extended) mapping on success.
// The input mapping is never mutated in place.
func extendMapping(g, s rule.Atom, mapping map[rule.VarID]rule.VarID) (map[rule.VarID]rule.VarID, bool) {
	if g.Relation != s.Relation || len(g.Terms) != len(s.Terms) {
		return nil, false
	}
	next := make(map[rule.VarID]rule.VarID, len(mapping))
	for k, v := range mapping {
		next[k] = v
	}
	for i, gt := range g.Terms {
		st := s.Terms[i]
		gv, gIsVar := gt.(rule.Variable)
		if !gIsVar {
			continue // general Anonymous matches anything
		}
		sv, sIsVar := st.(rule.Variable)
		if !sIsVar {
			return nil, false // general demands a join here, specific has none
		}
		if bound, ok := next[gv.ID]; ok {
			if bound != sv.ID {
				return nil, false
			}
			continue
		}
		next[gv.ID] = sv.ID
	}
	return next, true
}
