package validator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/monitor"
	"github.com/matilda-discovery/matilda/internal/queryengine"
	"github.com/matilda-discovery/matilda/internal/rule"
)

// Tolerance is the floating-point comparison slack used throughout
// support/confidence evaluation, per the data model's numeric semantics.
const Tolerance = 1e-9

// Params configures validation thresholds.
type Params struct {
	NbOccurrence        int
	ConfidenceThreshold float64
}

// Verdict is the result of validating a single candidate.
type Verdict struct {
	Valid      bool
	Support    uint64
	Confidence float64
	Cancelled  bool
}

// Validator compiles candidates to SQL and scores them against a live
// database through the QueryEngine.
type Validator struct {
	cat     *catalog.Catalog
	dialect catalog.Dialect
	eng     *queryengine.Engine
	mon     *monitor.Monitor
	cache   *countCache
	params  Params
}

// New builds a Validator. cacheSize bounds the memoized SQL-count cache.
func New(cat *catalog.Catalog, dialect catalog.Dialect, eng *queryengine.Engine, mon *monitor.Monitor, params Params, cacheSize int64) (*Validator, error) {
	cache, err := newCountCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("validator: building cache: %w", err)
	}
	return &Validator{cat: cat, dialect: dialect, eng: eng, mon: mon, cache: cache, params: params}, nil
}

// Validate computes support and confidence for r and decides whether it
// clears both thresholds.
func (v *Validator) Validate(ctx context.Context, r *rule.Rule) (Verdict, error) {
	if v.mon != nil && v.mon.Cancelled() {
		return Verdict{Cancelled: true}, nil
	}

	cb, err := compileBodyAtoms(v.cat, v.dialect, r.Body, 0)
	if err != nil {
		return Verdict{}, err
	}

	support, err := v.count(ctx, supportSQL(cb))
	if err != nil {
		return v.handleQueryError(err)
	}

	floor := v.params.NbOccurrence
	if floor <= 0 {
		floor = 1 // "no support floor" still requires support >= 1, per the design notes.
	}
	if support < uint64(floor) {
		return Verdict{Valid: false, Support: support}, nil
	}

	confidence, err := v.confidence(ctx, cb, r, support)
	if err != nil {
		return v.handleQueryError(err)
	}

	valid := confidence+Tolerance >= v.params.ConfidenceThreshold
	return Verdict{Valid: valid, Support: support, Confidence: confidence}, nil
}

func (v *Validator) confidence(ctx context.Context, cb compiledBody, r *rule.Rule, support uint64) (float64, error) {
	if headSharesNoVariable(r.Head, cb.firstOccurrence) {
		// Degenerate case from the design notes: the head is uncorrelated
		// with the body, so EXISTS is a constant predicate. Confidence is
		// 1.0 when the head relation (joined against itself, if it has
		// more than one atom) has any row at all, else 0.
		nonEmpty, err := v.headRelationsNonEmpty(ctx, r.Head)
		if err != nil {
			return 0, err
		}
		if nonEmpty {
			return 1.0, nil
		}
		return 0, nil
	}

	existsClause, err := compileHeadExists(v.cat, v.dialect, r.Head, cb.firstOccurrence)
	if err != nil {
		return 0, err
	}
	bothCount, err := v.count(ctx, bodyAndHeadSQL(cb, existsClause))
	if err != nil {
		return 0, err
	}
	if support == 0 {
		return 0, nil
	}
	return float64(bothCount) / float64(support), nil
}

func (v *Validator) headRelationsNonEmpty(ctx context.Context, head []rule.Atom) (bool, error) {
	cb, err := compileBodyAtoms(v.cat, v.dialect, head, 0)
	if err != nil {
		return false, err
	}
	sql := "SELECT COUNT(*) FROM " + cb.from
	if len(cb.where) > 0 {
		sql += " WHERE " + joinAnd(cb.where)
	}
	n, err := v.count(ctx, sql)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (v *Validator) count(ctx context.Context, sqlText string) (uint64, error) {
	if cached, ok := v.cache.get(sqlText); ok {
		return cached, nil
	}
	n, err := v.eng.Count(ctx, sqlText, nil)
	if err != nil {
		return 0, err
	}
	if v.mon != nil {
		v.mon.RecordSuccess()
	}
	v.cache.set(sqlText, n)
	return n, nil
}

func (v *Validator) handleQueryError(err error) (Verdict, error) {
	var qerr *queryengine.Error
	if as, ok := err.(*queryengine.Error); ok {
		qerr = as
	}
	if qerr != nil && qerr.Kind == queryengine.KindTimeout {
		if v.mon != nil {
			v.mon.RecordTimeout()
			if v.mon.Cancelled() {
				return Verdict{Cancelled: true}, nil
			}
		}
		// Non-fatal per candidate: reject and let enumeration continue.
		return Verdict{Valid: false}, nil
	}
	return Verdict{}, err
}

// FormatConfidence renders a confidence value to the 4-decimal-place
// format required by the output artifacts.
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 4, 64)
}

func joinAnd(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " AND " + p
	}
	return out
}
