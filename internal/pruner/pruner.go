// Package pruner implements the two-stage candidate filter: cheap
// pre-validation syntactic checks, and post-validation support/confidence/
// subsumption checks backed by an ordered, fingerprint-deduplicated set of
// accepted rules.
package pruner

import (
	"bytes"

	"github.com/google/btree"

	"github.com/matilda-discovery/matilda/internal/rule"
)

// Tolerance mirrors the validator's floating-point comparison slack.
const Tolerance = 1e-9

// Params configures the post-validation thresholds.
type Params struct {
	NbOccurrence        int
	ConfidenceThreshold float64
}

// Accepted is one rule the deduper has committed to the output set.
type Accepted struct {
	Fingerprint rule.Fingerprint
	Rule        *rule.Rule
	Support     uint64
	Confidence  float64
}

func fingerprintLess(a, b Accepted) bool {
	return bytes.Compare(a.Fingerprint[:], b.Fingerprint[:]) < 0
}

// Reason names why a candidate was dropped, for logging/diagnostics.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonBelowSupport     Reason = "support_below_floor"
	ReasonBelowConfidence  Reason = "confidence_below_threshold"
	ReasonDuplicate        Reason = "duplicate_fingerprint"
	ReasonSubsumed         Reason = "subsumed_by_accepted_rule"
	ReasonTrivialTautology Reason = "trivial_tautology"
	ReasonExceedsBounds    Reason = "exceeds_table_or_var_bounds"
)

// Deduper is the BTreeMap<Fingerprint, Rule> of accepted rules named by the
// data model: it owns the subsumption check and the final ranked output.
type Deduper struct {
	tree   *btree.BTreeG[Accepted]
	params Params
}

// New builds a Deduper for the given post-validation thresholds.
func New(params Params) *Deduper {
	return &Deduper{tree: btree.NewG(32, fingerprintLess), params: params}
}

// PreFilter applies the cheap syntactic checks that don't require touching
// the database: bound respect (already enforced by rule.Finalize, checked
// again here defensively), the trivial-tautology check, and rejection of a
// candidate whose fingerprint already matches an accepted rule.
func (d *Deduper) PreFilter(r *rule.Rule, limits rule.Limits) Reason {
	if r.AtomCount() > limits.MaxTable {
		return ReasonExceedsBounds
	}
	if len(r.Vars()) > limits.MaxVars {
		return ReasonExceedsBounds
	}
	if r.IsTrivialTautology() {
		return ReasonTrivialTautology
	}
	fp := r.Fingerprint()
	if _, ok := d.tree.Get(Accepted{Fingerprint: fp}); ok {
		return ReasonDuplicate
	}
	return ReasonNone
}

// PostFilter applies support/confidence thresholds and subsumption against
// every already-accepted rule, then commits the candidate on success.
func (d *Deduper) PostFilter(r *rule.Rule, support uint64, confidence float64) Reason {
	floor := d.params.NbOccurrence
	if floor <= 0 {
		floor = 1
	}
	if support < uint64(floor) {
		return ReasonBelowSupport
	}
	if confidence+Tolerance < d.params.ConfidenceThreshold {
		return ReasonBelowConfidence
	}

	fp := r.Fingerprint()
	if _, ok := d.tree.Get(Accepted{Fingerprint: fp}); ok {
		return ReasonDuplicate
	}

	var subsumedBy Reason
	d.tree.Ascend(func(a Accepted) bool {
		if subsumes(a.Rule, r) {
			subsumedBy = ReasonSubsumed
			return false
		}
		return true
	})
	if subsumedBy != ReasonNone {
		return subsumedBy
	}

	d.tree.ReplaceOrInsert(Accepted{Fingerprint: fp, Rule: r, Support: support, Confidence: confidence})
	return ReasonNone
}

// Len returns the number of currently accepted rules.
func (d *Deduper) Len() int { return d.tree.Len() }

// Rules returns the accepted set ordered for the final ranked sink:
// confidence descending, support descending, atom count ascending, per the
// data model's lifecycle note on the ranked sink ordering.
func (d *Deduper) Rules() []Accepted {
	out := make([]Accepted, 0, d.tree.Len())
	d.tree.Ascend(func(a Accepted) bool {
		out = append(out, a)
		return true
	})

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func less(a, b Accepted) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Support != b.Support {
		return a.Support > b.Support
	}
	return a.Rule.AtomCount() < b.Rule.AtomCount()
}
