// Package enumerator produces the lazy, deterministic sequence of
// candidate rules by walking the constraint graph with a bounded,
// pull-based depth-first search.
package enumerator

import (
	"context"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/graph"
	"github.com/matilda-discovery/matilda/internal/monitor"
	"github.com/matilda-discovery/matilda/internal/rule"
)

// Params bounds the search, mirroring the algorithm.* configuration keys.
type Params struct {
	MaxTable     int
	MaxVars      int
	NbOccurrence int
}

// Enumerator walks cat's relations and g's edges to produce candidate
// rules. It holds no mutable state between Run calls except through the
// catalog/graph it was built from, both of which are read-only.
type Enumerator struct {
	cat    *catalog.Catalog
	g      *graph.Graph
	params Params
}

// New builds an Enumerator over a fixed catalog and constraint graph.
func New(cat *catalog.Catalog, g *graph.Graph, params Params) *Enumerator {
	return &Enumerator{cat: cat, g: g, params: params}
}

// chainState is the DFS frame: the atom chain built so far plus the
// bookkeeping needed to extend it deterministically.
type chainState struct {
	atoms    []rule.Atom
	varNode  map[rule.VarID]graph.Node
	varOrder []rule.VarID
	nextVar  rule.VarID
}

// Run starts the bounded DFS in a background goroutine and returns an
// unbuffered channel of candidates. Because the channel has no buffer, the
// consumer's pace drives production, bounding the in-flight candidate set
// to O(DFS depth) as the concurrency model requires. The channel closes
// when the search space is exhausted, ctx is done, or mon trips cancel.
func (e *Enumerator) Run(ctx context.Context, mon *monitor.Monitor) <-chan *rule.Rule {
	out := make(chan *rule.Rule)
	go func() {
		defer close(out)
		seen := map[rule.Fingerprint]bool{}
		for _, relName := range e.cat.Relations() {
			rel, ok := e.cat.Relation(relName)
			if !ok {
				continue
			}
			state := e.seed(rel)
			if !e.extend(ctx, mon, out, seen, state) {
				return
			}
		}
	}()
	return out
}

// seed builds the singleton-body seed {R0(v1...va)} with fresh variables,
// one per column, as step 1 of the algorithm.
func (e *Enumerator) seed(rel *catalog.Relation) chainState {
	terms := make([]rule.Term, rel.Arity())
	varNode := make(map[rule.VarID]graph.Node, rel.Arity())
	varOrder := make([]rule.VarID, 0, rel.Arity())

	var next rule.VarID
	for i, col := range rel.Columns {
		v := next
		next++
		terms[i] = rule.Variable{ID: v}
		varNode[v] = graph.Node{Relation: rel.Name, Column: col.Name}
		varOrder = append(varOrder, v)
	}

	atom := rule.Atom{Relation: rel.Name, Terms: terms}
	return chainState{
		atoms:    []rule.Atom{atom},
		varNode:  varNode,
		varOrder: varOrder,
		nextVar:  next,
	}
}

// extend performs one DFS step: it emits a head-closure candidate for the
// current chain (if long enough), then tries every chain-extension choice
// in deterministic order. It returns false to signal the whole search
// should stop (context cancelled or monitor tripped), true to continue
// with sibling branches.
func (e *Enumerator) extend(ctx context.Context, mon *monitor.Monitor, out chan<- *rule.Rule, seen map[rule.Fingerprint]bool, state chainState) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	if mon != nil && mon.Cancelled() {
		return false
	}

	prefixFP := rule.PrefixFingerprint(state.atoms)
	if seen[prefixFP] {
		return true
	}
	seen[prefixFP] = true

	if len(state.atoms) >= 2 {
		body := cloneAtoms(state.atoms[:len(state.atoms)-1])
		head := cloneAtoms(state.atoms[len(state.atoms)-1:])
		if cand, err := rule.Finalize(body, head, rule.Limits{MaxTable: e.params.MaxTable, MaxVars: e.params.MaxVars}); err == nil {
			if !cand.IsTrivialTautology() {
				select {
				case out <- cand:
				case <-ctx.Done():
					return false
				}
			}
		}
	}

	if len(state.atoms) >= e.params.MaxTable {
		return true
	}

	for _, v := range state.varOrder {
		node := state.varNode[v]
		for _, edge := range e.g.Neighbors(node) {
			nextRel, ok := e.cat.Relation(edge.To.Relation)
			if !ok {
				continue
			}
			// max_vars bounds the finished rule, after rule.Finalize has
			// anonymized singleton body variables, so it is checked per
			// candidate there rather than on the raw chain here.
			next := extendChain(state, nextRel, edge.To.Column, v)
			if !e.extend(ctx, mon, out, seen, next) {
				return false
			}
		}
	}
	return true
}

// extendChain appends a new atom for nextRel, binding the column named
// boundCol to the existing variable boundVar and giving every other
// position a fresh variable. It never mutates the parent state's maps.
func extendChain(state chainState, nextRel *catalog.Relation, boundCol string, boundVar rule.VarID) chainState {
	varNode := make(map[rule.VarID]graph.Node, len(state.varNode)+nextRel.Arity())
	for k, v := range state.varNode {
		varNode[k] = v
	}
	varOrder := make([]rule.VarID, len(state.varOrder))
	copy(varOrder, state.varOrder)

	terms := make([]rule.Term, nextRel.Arity())
	next := state.nextVar
	for i, col := range nextRel.Columns {
		if col.Name == boundCol {
			terms[i] = rule.Variable{ID: boundVar}
			continue
		}
		v := next
		next++
		terms[i] = rule.Variable{ID: v}
		varNode[v] = graph.Node{Relation: nextRel.Name, Column: col.Name}
		varOrder = append(varOrder, v)
	}

	atoms := make([]rule.Atom, len(state.atoms)+1)
	copy(atoms, state.atoms)
	atoms[len(state.atoms)] = rule.Atom{Relation: nextRel.Name, Terms: terms}

	return chainState{atoms: atoms, varNode: varNode, varOrder: varOrder, nextVar: next}
}

func cloneAtoms(atoms []rule.Atom) []rule.Atom {
	out := make([]rule.Atom, len(atoms))
	copy(out, atoms)
	return out
}
