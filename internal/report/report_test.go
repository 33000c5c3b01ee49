package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matilda-discovery/matilda/internal/discovery"
)

func sampleResult() *discovery.Result {
	return &discovery.Result{
		Rules: []discovery.RuleResult{
			{
				Body:       []string{"enrollment(_, x, _)"},
				Head:       []string{"student(x, n, y, d)"},
				Support:    76,
				Confidence: 76.0 / 81.0,
				TGDString:  "enrollment(_, x, _) → ∃n,y,d. student(x, n, y, d)",
			},
		},
		Metadata: discovery.Metadata{
			Database:             "university",
			TotalRules:           1,
			ExecutionTimeSeconds: 1.234,
			Status:               discovery.StatusSuccess,
			CandidatesEnumerated: 12,
			CandidatesAccepted:   1,
		},
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteJSON(dir, "university", sampleResult())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "MATILDA_university_results.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded discovery.Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 1, decoded.Metadata.TotalRules)
	require.Equal(t, uint64(76), decoded.Rules[0].Support)
}

func TestWriteMarkdownIncludesRuleTable(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteMarkdown(dir, "university", sampleResult())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "student(x, n, y, d)")
	require.Contains(t, string(data), "76")
}

func TestWriteMarkdownHandlesEmptyRuleSet(t *testing.T) {
	dir := t.TempDir()
	empty := sampleResult()
	empty.Rules = nil
	empty.Metadata.TotalRules = 0

	path, err := WriteMarkdown(dir, "university", empty)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "No rules met")
}

func TestPrintSummaryWritesRuleLines(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, "university", sampleResult())
	require.Contains(t, buf.String(), "student(x, n, y, d)")
	require.Contains(t, buf.String(), "success")
}
