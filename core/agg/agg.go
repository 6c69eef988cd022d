// Package agg sums per-file metric maps into grouped totals.
package agg

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/schema"
)

// Outlier filter parameters.
const (
	ErrorMetric      = "ERROR"
	DefaultSize      = 1000 // Size assumed for a file with no size metric
	MaxErrorsPerSize = 50   // A file may carry one ERROR node per this many size units
)

// sizeMetrics are the size proxies checked in order.
var sizeMetrics = []string{"statements", "expressions", "lines"}

// IsOutlier reports whether a file map has too many ERROR nodes for its size
// to be trusted.
func IsOutlier(m metric.Map) bool {
	errs, ok := m.Count(ErrorMetric)
	if !ok {
		return false
	}
	return float64(errs) > sizeOf(m)/MaxErrorsPerSize
}

// ErrorRatio returns the number of ERROR nodes per unit of size, using the
// same size proxy as IsOutlier.
func ErrorRatio(m metric.Map) float64 {
	errs, ok := m.Count(ErrorMetric)
	if !ok {
		return 0
	}
	return float64(errs) / sizeOf(m)
}

func sizeOf(m metric.Map) float64 {
	for _, name := range sizeMetrics {
		if n, ok := m.Count(name); ok {
			return float64(n)
		}
	}
	return DefaultSize
}

// SumMetrics merges every map that is not an outlier. It returns the sum and
// the number of maps skipped. A label that differs between maps is left out
// of the sum; any other kind mismatch is an error.
func SumMetrics(maps ...metric.Map) (metric.Map, int, error) {
	out := make(metric.Map)
	mixed := make(map[string]struct{})
	skipped := 0
	for _, m := range maps {
		if IsOutlier(m) {
			skipped++
			continue
		}
		if err := mergeFile(out, m, mixed); err != nil {
			return nil, skipped, err
		}
	}
	return out, skipped, nil
}

// mergeFile folds one map into sum. Names whose labels disagreed are
// recorded in mixed and stay out of sum.
func mergeFile(sum, m metric.Map, mixed map[string]struct{}) error {
	for _, name := range m.Names() {
		v := m[name]
		if l, ok := v.(metric.Label); ok {
			if _, dropped := mixed[name]; dropped {
				continue
			}
			if prev, ok := sum[name].(metric.Label); ok && prev != l {
				delete(sum, name)
				mixed[name] = struct{}{}
				continue
			}
		}
		combined, err := metric.Combine(sum[name], v)
		if err != nil {
			return fmt.Errorf("metric %q: %w", name, err)
		}
		if combined != nil {
			sum[name] = combined
		}
	}
	return nil
}

// Grouping keywords, tried in order against the whole setting.
var groupPatterns = []struct {
	re   *regexp.Regexp
	mode schema.GroupMode
}{
	{regexp.MustCompile(`(?i)group`), schema.GroupByGroup},
	{regexp.MustCompile(`(?i)file`), schema.GroupByFile},
	{regexp.MustCompile(`(?i)lang(uage)?`), schema.GroupByLanguage},
	{regexp.MustCompile(`(?i)repo(sitory)?|dir(ectory)?`), schema.GroupByDir},
}

// ParseGroupMode picks the first grouping keyword contained in s, ignoring
// case. An empty setting means group; one with no keyword sums every result
// into a single partition.
func ParseGroupMode(s string) schema.GroupMode {
	if strings.TrimSpace(s) == "" {
		return schema.GroupByGroup
	}
	for _, p := range groupPatterns {
		if p.re.MatchString(s) {
			return p.mode
		}
	}
	return schema.GroupByNone
}

// KeyOf returns the partition key of a result under a grouping mode.
func KeyOf(r schema.FileResult, mode schema.GroupMode) string {
	switch mode {
	case schema.GroupByFile:
		return r.File
	case schema.GroupByLanguage:
		return r.Language
	case schema.GroupByDir:
		return r.Dir
	case schema.GroupByNone:
		return ""
	default:
		return r.Group
	}
}

// summarize sums one partition into a GroupedTotal.
func summarize(key string, results []schema.FileResult) (schema.GroupedTotal, error) {
	maps := make([]metric.Map, len(results))
	for i, r := range results {
		maps[i] = r.Metrics
	}
	sum, skipped, err := SumMetrics(maps...)
	if err != nil {
		return schema.GroupedTotal{}, fmt.Errorf("sum %q: %w", key, err)
	}
	return schema.GroupedTotal{Key: key, Files: len(results), Skipped: skipped, Metrics: sum}, nil
}

// partition splits results by key, keeping first-seen order within a key.
// Keys are returned sorted.
func partition(results []schema.FileResult, key func(schema.FileResult) string) ([]string, map[string][]schema.FileResult) {
	parts := make(map[string][]schema.FileResult)
	for _, r := range results {
		k := key(r)
		parts[k] = append(parts[k], r)
	}
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, parts
}

// GroupBy partitions results by the mode's key and sums each partition.
// Totals are sorted by key.
func GroupBy(results []schema.FileResult, mode schema.GroupMode) ([]schema.GroupedTotal, error) {
	keys, parts := partition(results, func(r schema.FileResult) string { return KeyOf(r, mode) })
	out := make([]schema.GroupedTotal, 0, len(keys))
	for _, k := range keys {
		total, err := summarize(k, parts[k])
		if err != nil {
			return nil, err
		}
		out = append(out, total)
	}
	return out, nil
}

// GrandTotal sums every result, applying the outlier filter.
func GrandTotal(results []schema.FileResult) (schema.GroupedTotal, error) {
	return summarize(schema.TotalMarker, results)
}

// Languages returns the distinct languages of results, sorted.
func Languages(results []schema.FileResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Language)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// TotalByLanguage sums the results of each language independently, in the
// order of languages. Languages without results are left out.
func TotalByLanguage(results []schema.FileResult, languages []string) ([]schema.GroupedTotal, error) {
	_, parts := partition(results, func(r schema.FileResult) string { return r.Language })
	var out []schema.GroupedTotal
	for _, lang := range languages {
		files, ok := parts[lang]
		if !ok {
			continue
		}
		total, err := summarize(lang, files)
		if err != nil {
			return nil, err
		}
		total.Language = lang
		out = append(out, total)
	}
	return out, nil
}

// DirPartition is the results collected from one directory.
type DirPartition struct {
	Dir     string
	Results []schema.FileResult // Sorted by file path
}

// ByDirectory partitions results by directory, sorted by directory and then file.
func ByDirectory(results []schema.FileResult) []DirPartition {
	keys, parts := partition(results, func(r schema.FileResult) string { return r.Dir })
	out := make([]DirPartition, 0, len(keys))
	for _, k := range keys {
		files := slices.Clone(parts[k])
		slices.SortStableFunc(files, func(a, b schema.FileResult) int { return strings.Compare(a.File, b.File) })
		out = append(out, DirPartition{Dir: k, Results: files})
	}
	return out
}

// GroupsOf returns the distinct groups of the results of one language, sorted.
func GroupsOf(results []schema.FileResult, language string) []string {
	var out []string
	for _, r := range results {
		if r.Language == language {
			out = append(out, r.Group)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
