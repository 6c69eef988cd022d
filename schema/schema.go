// Package schema has the models shared by every part of treemetrics.
package schema

import (
	"fmt"

	"github.com/huangsam/treemetrics/core/metric"
)

// FileResult is the metric map computed for one analyzed file.
type FileResult struct {
	Dir      string     `json:"dir"`      // Root the file was collected from
	Group    string     `json:"group"`    // Logical group label (bulk definition name)
	Language string     `json:"language"` // Detected language name
	File     string     `json:"file"`     // Path relative to Dir
	Metrics  metric.Map `json:"metrics"`
}

// Diagnostic is a non-fatal finding recorded while analyzing files.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Group   string         `json:"group,omitempty"`
	File    string         `json:"file,omitempty"`
	Metric  string         `json:"metric,omitempty"`
	Message string         `json:"message"`
}

// String renders the diagnostic with enough context to locate its cause.
func (d Diagnostic) String() string {
	where := d.File
	if where == "" {
		where = d.Group
	}
	if d.Metric != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Kind, where, d.Metric, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, where, d.Message)
}

// GroupedTotal is the summed metric map of one partition of file results.
type GroupedTotal struct {
	Key      string     `json:"key"`
	Files    int        `json:"files"`
	Skipped  int        `json:"skipped"` // Files excluded as parse outliers
	Metrics  metric.Map `json:"metrics"`
	Language string     `json:"language,omitempty"`
}

// AnalysisOutput is everything a batch of files produced.
type AnalysisOutput struct {
	Results     []FileResult `json:"results"` // Sorted by dir and file
	Diagnostics []Diagnostic `json:"diagnostics"`
	Cached      int          `json:"cached"` // Results served from the metric cache
	Failed      int          `json:"failed"` // Files that could not be analyzed
}

// LanguageInfo describes one supported language.
type LanguageInfo struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases"`
	Extensions []string `json:"extensions"`
	Metrics    []string `json:"metrics"` // Standard catalogue metric names
}
