// Package discovery drives the end-to-end run: load the catalog, build the
// constraint graph, enumerate candidates, validate and prune each one, and
// assemble the final ranked result. It implements the explicit state
// machine INIT → LOADING_CATALOG → BUILDING_GRAPH → ENUMERATING →
// (VALIDATING)* → FINALIZING → DONE, with CANCELLED reachable from any
// in-flight state and FAILED reserved for unrecoverable query errors.
package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/config"
	"github.com/matilda-discovery/matilda/internal/enumerator"
	"github.com/matilda-discovery/matilda/internal/graph"
	"github.com/matilda-discovery/matilda/internal/monitor"
	"github.com/matilda-discovery/matilda/internal/pruner"
	"github.com/matilda-discovery/matilda/internal/queryengine"
	"github.com/matilda-discovery/matilda/internal/rule"
	"github.com/matilda-discovery/matilda/internal/tracking"
	"github.com/matilda-discovery/matilda/internal/validator"
)

// RuleResult is one accepted rule rendered for the output artifact.
type RuleResult struct {
	Body       []string `json:"body"`
	Head       []string `json:"head"`
	Support    uint64   `json:"support"`
	Confidence float64  `json:"confidence"`
	TGDString  string   `json:"tgd_string"`
}

// Metadata describes the run as a whole.
type Metadata struct {
	Database             string  `json:"database"`
	TotalRules           int     `json:"total_rules"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	Status               Status  `json:"status"`
	CancelTrigger        string  `json:"cancel_trigger,omitempty"`
	CandidatesEnumerated int     `json:"candidates_enumerated"`
	CandidatesAccepted   int     `json:"candidates_accepted"`
}

// Result is the full outcome of a discovery run.
type Result struct {
	Rules    []RuleResult `json:"rules"`
	Metadata Metadata     `json:"metadata"`
}

// Run executes the full pipeline against an already-open database handle.
func Run(ctx context.Context, db *sql.DB, dbLabel string, dialect catalog.Dialect, cfg *config.Config, log *zap.Logger, sink tracking.Sink) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := StateInit
	start := time.Now()

	mon := monitor.New(cfg.Monitor.MemoryThresholdBytes, secondsToDuration(cfg.Monitor.TimeoutSeconds))
	eng := queryengine.New(db, mon, secondsToDuration(cfg.Monitor.TimeoutSeconds))

	sink.LogTransition(string(state))

	state = StateLoadingCatalog
	sink.LogTransition(string(state))
	cat, err := catalog.Load(ctx, db, dialect, eng, catalog.DefaultLoadOptions(), log)
	if err != nil {
		sink.LogFailure(err)
		return nil, fmt.Errorf("discovery: loading catalog: %w", err)
	}
	if log != nil {
		log.Info("catalog loaded", zap.Int("relations", len(cat.Relations())))
	}

	state = StateBuildingGraph
	sink.LogTransition(string(state))
	g := graph.Build(cat)
	if log != nil {
		log.Info("constraint graph built", zap.Int("nodes", g.NodeCount()))
	}

	enumParams := enumerator.Params{
		MaxTable:     cfg.Algorithm.MaxTable,
		MaxVars:      cfg.Algorithm.MaxVars,
		NbOccurrence: cfg.Algorithm.NbOccurrence,
	}
	enum := enumerator.New(cat, g, enumParams)

	val, err := validator.New(cat, dialect, eng, mon, validator.Params{
		NbOccurrence:        cfg.Algorithm.NbOccurrence,
		ConfidenceThreshold: cfg.Algorithm.ConfidenceThreshold,
	}, 10_000)
	if err != nil {
		sink.LogFailure(err)
		return nil, fmt.Errorf("discovery: building validator: %w", err)
	}

	dedup := pruner.New(pruner.Params{
		NbOccurrence:        cfg.Algorithm.NbOccurrence,
		ConfidenceThreshold: cfg.Algorithm.ConfidenceThreshold,
	})

	limits := rule.Limits{MaxTable: cfg.Algorithm.MaxTable, MaxVars: cfg.Algorithm.MaxVars}

	state = StateEnumerating
	sink.LogTransition(string(state))

	enumerated := 0
	cancelled := false

candidateLoop:
	for cand := range enum.Run(ctx, mon) {
		select {
		case <-ctx.Done():
			cancelled = true
			break candidateLoop
		default:
		}
		if mon.Poll() != monitor.TriggerNone {
			cancelled = true
			break candidateLoop
		}

		enumerated++

		if reason := dedup.PreFilter(cand, limits); reason != pruner.ReasonNone {
			continue
		}

		state = StateValidating
		verdict, err := val.Validate(ctx, cand)
		if err != nil {
			sink.LogFailure(err)
			return nil, fmt.Errorf("discovery: validating candidate: %w", err)
		}
		if verdict.Cancelled {
			cancelled = true
			break candidateLoop
		}
		if !verdict.Valid {
			state = StateEnumerating
			continue
		}

		dedup.PostFilter(cand, verdict.Support, verdict.Confidence)
		state = StateEnumerating
	}

	if mon.Cancelled() {
		cancelled = true
	}

	state = StateFinalizing
	sink.LogTransition(string(state))

	status := StatusSuccess
	trigger := ""
	if cancelled {
		status = StatusPartial
		trigger = string(mon.Trigger())
		state = StateCancelled
	}

	accepted := dedup.Rules()
	rules := make([]RuleResult, 0, len(accepted))
	for _, a := range accepted {
		rules = append(rules, RuleResult{
			Body:       a.Rule.BodyStrings(),
			Head:       a.Rule.HeadStrings(),
			Support:    a.Support,
			Confidence: a.Confidence,
			TGDString:  a.Rule.TGDString(),
		})
	}

	result := &Result{
		Rules: rules,
		Metadata: Metadata{
			Database:             dbLabel,
			TotalRules:           len(rules),
			ExecutionTimeSeconds: time.Since(start).Seconds(),
			Status:               status,
			CancelTrigger:        trigger,
			CandidatesEnumerated: enumerated,
			CandidatesAccepted:   len(rules),
		},
	}

	state = StateDone
	sink.LogTransition(string(state))
	sink.LogResult(result.Metadata.TotalRules, string(status))

	return result, nil
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
