// Package report renders a discovery Result as the JSON/Markdown output
// artifacts and a colorized CLI summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matilda-discovery/matilda/internal/discovery"
)

// JSONPath returns the artifact path for a given database label, matching
// "MATILDA_<db>_results.json".
func JSONPath(outputDir, dbLabel string) string {
	return filepath.Join(outputDir, fmt.Sprintf("MATILDA_%s_results.json", dbLabel))
}

// WriteJSON marshals result to JSONPath(outputDir, dbLabel) with two-space
// indentation, creating outputDir if needed.
func WriteJSON(outputDir, dbLabel string, result *discovery.Result) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating %s: %w", outputDir, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: encoding result: %w", err)
	}

	path := JSONPath(outputDir, dbLabel)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", path, err)
	}
	return path, nil
}
