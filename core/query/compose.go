package query

import (
	"bytes"
	"fmt"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/schema"
)

// ErrorMetric is the metric holding the number of parse error nodes.
const ErrorMetric = "ERROR"

// Result is the map produced by one matcher for one file.
type Result struct {
	Query   string
	Metrics metric.Map
}

// LineCount returns the number of lines in source. An empty source has one line.
func LineCount(source []byte) int {
	return bytes.Count(source, []byte("\n")) + 1
}

// ComposeFile folds the per-query maps of one file into its metric map.
//
// Zero counts are dropped. A metric emitted by two queries is overwritten by
// the later one and reported, which differs from aggregation where values are
// always combined. A file with more ERROR nodes than lines is reported too.
func ComposeFile(file string, results []Result, lines int) (metric.Map, []schema.Diagnostic) {
	out := make(metric.Map)
	var diags []schema.Diagnostic
	for _, r := range results {
		for _, k := range r.Metrics.Names() {
			v := r.Metrics[k]
			if v == nil || v == metric.Count(0) {
				continue
			}
			if _, exists := out[k]; exists {
				diags = append(diags, schema.Diagnostic{
					Kind:    schema.DuplicateMetricKey,
					File:    file,
					Metric:  k,
					Message: fmt.Sprintf("duplicate key in query %s, keeping the later value", r.Query),
				})
			}
			out[k] = v
		}
	}

	if errs, ok := out.Count(ErrorMetric); ok && errs > int64(lines) {
		diags = append(diags, schema.Diagnostic{
			Kind:    schema.HighErrorRatio,
			File:    file,
			Metric:  ErrorMetric,
			Message: fmt.Sprintf("suspiciously high number of errors (%d errors per %d lines)", errs, lines),
		})
	}
	return out, diags
}
