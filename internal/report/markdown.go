package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/matilda-discovery/matilda/internal/discovery"
	"github.com/matilda-discovery/matilda/internal/validator"
)

// MarkdownPath returns the artifact path for a given database label,
// matching "report_MATILDA_<db>.md".
func MarkdownPath(outputDir, dbLabel string) string {
	return filepath.Join(outputDir, fmt.Sprintf("report_MATILDA_%s.md", dbLabel))
}

// WriteMarkdown renders result as a Markdown report with a tablewriter rule
// table, creating outputDir if needed.
func WriteMarkdown(outputDir, dbLabel string, result *discovery.Result) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating %s: %w", outputDir, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# MATILDA Discovery Report — %s\n\n", dbLabel)
	fmt.Fprintf(&sb, "Status: **%s**  \n", result.Metadata.Status)
	fmt.Fprintf(&sb, "Rules discovered: **%d**  \n", result.Metadata.TotalRules)
	fmt.Fprintf(&sb, "Candidates enumerated: %d  \n", result.Metadata.CandidatesEnumerated)
	fmt.Fprintf(&sb, "Execution time: %.3fs\n\n", result.Metadata.ExecutionTimeSeconds)

	if len(result.Rules) == 0 {
		sb.WriteString("_No rules met the configured thresholds._\n")
	} else {
		alignment := []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight}
		table := tablewriter.NewTable(&sb,
			tablewriter.WithRenderer(renderer.NewMarkdown()),
			tablewriter.WithAlignment(alignment),
			tablewriter.WithHeaderAutoFormat(tw.Off),
		)
		table.Header([]string{"Rule", "Support", "Confidence"})
		for _, r := range result.Rules {
			table.Append([]string{r.TGDString, fmt.Sprintf("%d", r.Support), validator.FormatConfidence(r.Confidence)})
		}
		table.Render()
	}

	path := MarkdownPath(outputDir, dbLabel)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", path, err)
	}
	return path, nil
}
