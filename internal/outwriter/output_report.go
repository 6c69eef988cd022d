package outwriter

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/treemetrics/core/agg"
	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// reportQuantiles are the distribution points shown in the text report.
var reportQuantiles = [3]float64{0.2, 0.5, 0.8}

// writeResultsTable generates and writes the human-readable report: one line
// per metric and group, then the parse health of every group.
func writeResultsTable(output *schema.AnalysisOutput, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	grouped, err := agg.GroupBy(output.Results, cfg.GroupBy)
	if err != nil {
		return err
	}
	names := reportMetricNames(grouped)
	showGroup := slices.ContainsFunc(grouped, func(g schema.GroupedTotal) bool { return g.Key != "" })
	pathWidth := GetMaxTablePathWidth(cfg)

	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Metric"}
	if showGroup {
		headers = append(headers, "Group")
	}
	headers = append(headers, "Total")
	for _, n := range cfg.NormalizeTo {
		headers = append(headers, "/"+n)
	}
	headers = append(headers, "Distribution")
	table.Header(headers)

	// 2. Configure alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for _, name := range names {
		first := true
		for _, g := range grouped {
			v, ok := g.Metrics[name]
			if !ok {
				continue
			}
			row := []string{""}
			if first {
				row[0] = name
				first = false
			}
			if showGroup {
				row = append(row, contract.TruncatePath(g.Key, pathWidth))
			}
			row = append(row, reportCells(v, g.Metrics, cfg.NormalizeTo, fmtFloat)...)
			data = append(data, row)
		}
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if err := writeHealthTable(grouped, cfg, pathWidth, writer); err != nil {
		return err
	}
	return writeSummary(writer, output, duration, cfg)
}

// reportMetricNames returns every metric of the grouped totals, sorted
// case-insensitively.
func reportMetricNames(grouped []schema.GroupedTotal) []string {
	var names []string
	for _, g := range grouped {
		for name := range g.Metrics {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a), strings.ToLower(b)), cmp.Compare(a, b))
	})
	return names
}

// reportCells renders the Total, normalized and Distribution columns of one value.
func reportCells(v metric.Value, m metric.Map, normalizeTo []string, fmtFloat func(float64) string) []string {
	cells := make([]string, 0, len(normalizeTo)+2)
	var dist string
	switch x := v.(type) {
	case metric.Count:
		cells = append(cells, humanize.Comma(int64(x)))
		for _, n := range normalizeTo {
			cells = append(cells, normalized(int64(x), m, n, fmtFloat))
		}
	case *metric.Histogram:
		cells = append(cells, humanize.Comma(x.Total()))
		for range normalizeTo {
			cells = append(cells, "")
		}
		dist = formatDistribution(x, fmtFloat)
	case metric.Messages:
		cells = append(cells, humanize.Comma(int64(len(x))))
		for range normalizeTo {
			cells = append(cells, "")
		}
	case metric.Label:
		cells = append(cells, string(x))
		for range normalizeTo {
			cells = append(cells, "")
		}
	}
	return append(cells, dist)
}

// normalized expresses value as a percentage of another count in the same map.
func normalized(value int64, m metric.Map, divisor string, fmtFloat func(float64) string) string {
	d, ok := m.Count(divisor)
	if !ok || d == 0 {
		return "-"
	}
	return fmtFloat(100*float64(value)/float64(d)) + "%"
}

// formatDistribution renders p20 .. p50 .. p80 and the mean of a histogram.
func formatDistribution(h *metric.Histogram, fmtFloat func(float64) string) string {
	mean := h.Mean()
	if h.Total() == 0 || math.IsNaN(mean) {
		return "-"
	}
	return fmt.Sprintf("%d .. %d .. %d  mean = %s",
		h.Quantile(reportQuantiles[0]), h.Quantile(reportQuantiles[1]), h.Quantile(reportQuantiles[2]), fmtFloat(mean))
}

// writeHealthTable prints file counts and the parse health label of every group.
func writeHealthTable(grouped []schema.GroupedTotal, cfg *contract.Config, pathWidth int, writer io.Writer) error {
	if len(grouped) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Group", "Files", "Skipped", "Errors", "Health"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, g := range grouped {
		key := g.Key
		if key == "" {
			key = "-"
		}
		errs, _ := g.Metrics.Count(agg.ErrorMetric)
		ratio := agg.ErrorRatio(g.Metrics)
		label := contract.GetPlainLabel(ratio)
		if cfg.UseColors {
			label = contract.GetColorLabel(ratio)
		}
		data = append(data, []string{
			contract.TruncatePath(key, pathWidth),
			strconv.Itoa(g.Files),
			strconv.Itoa(g.Skipped),
			humanize.Comma(errs),
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSummary prints the closing lines of a report.
func writeSummary(writer io.Writer, output *schema.AnalysisOutput, duration time.Duration, cfg *contract.Config) error {
	metrics := make(map[string]struct{})
	for _, r := range output.Results {
		for name := range r.Metrics {
			metrics[name] = struct{}{}
		}
	}
	line := fmt.Sprintf("Analyzed %d files with %d metrics", len(output.Results), len(metrics))
	if output.Cached > 0 || output.Failed > 0 {
		line += fmt.Sprintf(" (%d cached, %d failed)", output.Cached, output.Failed)
	}
	if _, err := fmt.Fprintln(writer, line); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}
