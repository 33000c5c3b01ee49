package discovery_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/config"
	"github.com/matilda-discovery/matilda/internal/demo"
	"github.com/matilda-discovery/matilda/internal/discovery"
	"github.com/matilda-discovery/matilda/internal/tracking"
)

// findRule returns the rule with a single body atom rendered exactly as
// bodyAtom and a single head atom starting with headPrefix. The demo
// database yields several enrollment -> student and advisor -> student
// rules joined on different columns (some with confidence 1.0, ranked
// first), so relation names alone do not single out the Scenario A/B rule.
// Variable names follow first-occurrence order (see
// internal/rule/format.go), so the join column shows in the rendering.
func findRule(rules []discovery.RuleResult, bodyAtom, headPrefix string) *discovery.RuleResult {
	for i := range rules {
		r := &rules[i]
		if len(r.Body) != 1 || len(r.Head) != 1 {
			continue
		}
		if r.Body[0] == bodyAtom && strings.HasPrefix(r.Head[0], headPrefix) {
			return r
		}
	}
	return nil
}

func buildDemoDB(t *testing.T, name demo.Name) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, demo.Build(db, name))
	return db
}

// scenarioABConfig matches spec.md §8's Scenario A/B configuration
// exactly: nb_occurrence=2, max_table=2, max_vars=4,
// confidence_threshold=0.9.
func scenarioABConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Algorithm.NbOccurrence = 2
	cfg.Algorithm.MaxTable = 2
	cfg.Algorithm.MaxVars = 4
	cfg.Algorithm.ConfidenceThreshold = 0.9
	cfg.Monitor.TimeoutSeconds = 30
	cfg.Monitor.MemoryThresholdBytes = 0
	return cfg
}

func TestScenarioA_EnrollmentImpliesStudentEndToEnd(t *testing.T) {
	db := buildDemoDB(t, demo.ImperfectDatabase)
	cfg := scenarioABConfig()

	result, err := discovery.Run(context.Background(), db, "university", catalog.SQLiteDialect{}, cfg, zap.NewNop(), tracking.NoopSink{})
	require.NoError(t, err)
	require.Equal(t, discovery.StatusSuccess, result.Metadata.Status)

	found := findRule(result.Rules, "enrollment(_, x, _)", "student(x, ")
	require.NotNil(t, found, "expected enrollment -> student rule among %d discovered rules", len(result.Rules))
	// The body's variable occurs once (unshared), so support is the body's
	// full row count: all 81 enrollments, valid and dangling alike.
	require.Equal(t, uint64(81), found.Support)
	require.InDelta(t, 76.0/81.0, found.Confidence, 1e-9)
}

func TestScenarioB_AdvisorImpliesStudentEndToEnd(t *testing.T) {
	db := buildDemoDB(t, demo.ImperfectDatabase)
	cfg := scenarioABConfig()

	result, err := discovery.Run(context.Background(), db, "university", catalog.SQLiteDialect{}, cfg, zap.NewNop(), tracking.NoopSink{})
	require.NoError(t, err)

	found := findRule(result.Rules, "advisor(_, _, x)", "student(x, ")
	require.NotNil(t, found, "expected advisor -> student rule among %d discovered rules", len(result.Rules))
	// Same reasoning as Scenario A: the body's variable is unshared, so
	// support is the advisor table's full row count, 48.
	require.Equal(t, uint64(48), found.Support)
	require.InDelta(t, 45.0/48.0, found.Confidence, 1e-9)
}

func TestScenarioC_EmptyResultSetIsSuccess(t *testing.T) {
	db := buildDemoDB(t, demo.ImperfectDatabase)
	cfg := scenarioABConfig()
	cfg.Algorithm.NbOccurrence = 100

	result, err := discovery.Run(context.Background(), db, "university", catalog.SQLiteDialect{}, cfg, zap.NewNop(), tracking.NoopSink{})
	require.NoError(t, err)
	require.Empty(t, result.Rules)
	require.Equal(t, discovery.StatusSuccess, result.Metadata.Status)
}

func TestScenarioD_TimeoutYieldsPartialStatus(t *testing.T) {
	db := buildDemoDB(t, demo.ImperfectDatabase)
	cfg := scenarioABConfig()
	cfg.Monitor.TimeoutSeconds = 0.001

	result, err := discovery.Run(context.Background(), db, "university", catalog.SQLiteDialect{}, cfg, zap.NewNop(), tracking.NoopSink{})
	require.NoError(t, err)
	require.Equal(t, discovery.StatusPartial, result.Metadata.Status)
	require.Equal(t, "timeout", result.Metadata.CancelTrigger)
	require.LessOrEqual(t, result.Metadata.CandidatesAccepted, result.Metadata.CandidatesEnumerated)
}

func TestScenarioE_DeterministicOutputAcrossRuns(t *testing.T) {
	run := func() *discovery.Result {
		db := buildDemoDB(t, demo.ImperfectDatabase)
		cfg := scenarioABConfig()
		result, err := discovery.Run(context.Background(), db, "university", catalog.SQLiteDialect{}, cfg, zap.NewNop(), tracking.NoopSink{})
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	require.Equal(t, first.Rules, second.Rules)
	require.Equal(t, first.Metadata.TotalRules, second.Metadata.TotalRules)
	require.Equal(t, first.Metadata.CandidatesEnumerated, second.Metadata.CandidatesEnumerated)
	require.Equal(t, first.Metadata.CandidatesAccepted, second.Metadata.CandidatesAccepted)
}
