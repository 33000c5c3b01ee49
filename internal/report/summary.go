package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/matilda-discovery/matilda/internal/discovery"
	"github.com/matilda-discovery/matilda/internal/validator"
)

// PrintSummary writes a colorized human-readable summary of result to w.
// Color auto-disables when w is not a terminal, per fatih/color's own
// detection (the same behavior this corpus's annotation formatter
// hand-rolls for a single stream).
func PrintSummary(w io.Writer, dbLabel string, result *discovery.Result) {
	statusColor := color.New(color.FgGreen, color.Bold)
	if result.Metadata.Status == discovery.StatusPartial {
		statusColor = color.New(color.FgYellow, color.Bold)
	}

	fmt.Fprintf(w, "%s %s\n", color.New(color.FgCyan, color.Bold).Sprint("MATILDA"), dbLabel)
	fmt.Fprintf(w, "  status:     %s\n", statusColor.Sprint(result.Metadata.Status))
	fmt.Fprintf(w, "  rules:      %d\n", result.Metadata.TotalRules)
	fmt.Fprintf(w, "  enumerated: %d\n", result.Metadata.CandidatesEnumerated)
	fmt.Fprintf(w, "  elapsed:    %.3fs\n", result.Metadata.ExecutionTimeSeconds)
	if result.Metadata.CancelTrigger != "" {
		fmt.Fprintf(w, "  %s trigger: %s\n", color.New(color.FgYellow).Sprint("!"), result.Metadata.CancelTrigger)
	}

	for _, r := range result.Rules {
		fmt.Fprintf(w, "  %s %s  %s\n",
			color.New(color.FgGreen).Sprint("✓"),
			r.TGDString,
			color.New(color.Faint).Sprintf("support=%d confidence=%s", r.Support, validator.FormatConfidence(r.Confidence)))
	}
}
