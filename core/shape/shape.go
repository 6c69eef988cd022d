// Package shape turns metric maps into the flat records written by exporters.
package shape

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/treemetrics/core/agg"
	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/schema"
)

// Export name suffixes.
const (
	TotalSuffix     = "_total"
	AvgSuffix       = "_avg"
	HistogramSuffix = "_histogram"
	MessagesSuffix  = "_messages"
)

// QuantileName returns the export name of a quantile field, e.g. lines_p50.
func QuantileName(source string, q float64) string {
	percent := math.Round(q*1000) / 10
	return source + "_p" + strconv.FormatFloat(percent, 'f', -1, 64)
}

// CollectDescriptors lists the export fields derived from every metric seen
// in results, sorted by export name. The first metric producing a name owns it.
func CollectDescriptors(results []schema.FileResult, opts schema.ExportOptions) []schema.Descriptor {
	seen := make(map[string]schema.Descriptor)
	add := func(d schema.Descriptor) {
		if _, ok := seen[d.Name]; !ok {
			seen[d.Name] = d
		}
	}
	for _, r := range results {
		for _, name := range r.Metrics.Names() {
			switch r.Metrics[name].(type) {
			case metric.Count:
				add(schema.Descriptor{Name: name + TotalSuffix, Source: name, Kind: schema.TotalField})
			case *metric.Histogram:
				add(schema.Descriptor{Name: name + AvgSuffix, Source: name, Kind: schema.AvgField})
				add(schema.Descriptor{Name: name + TotalSuffix, Source: name, Kind: schema.TotalField})
				for _, q := range opts.Quantiles {
					add(schema.Descriptor{Name: QuantileName(name, q), Source: name, Kind: schema.QuantileField, Quantile: q})
				}
				if opts.HistogramData {
					add(schema.Descriptor{Name: name + HistogramSuffix, Source: name, Kind: schema.HistogramField})
				}
			case metric.Messages:
				add(schema.Descriptor{Name: name + TotalSuffix, Source: name, Kind: schema.TotalField})
				if opts.MessagesData {
					add(schema.Descriptor{Name: name + MessagesSuffix, Source: name, Kind: schema.MessagesField})
				}
			case metric.Label:
				add(schema.Descriptor{Name: name, Source: name, Kind: schema.LabelField})
			}
		}
	}

	out := make([]schema.Descriptor, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b schema.Descriptor) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ShapeMap evaluates each descriptor against one metric map.
//
// Absent metrics are left out unless IncludeEmptyMetrics is set, in which case
// totals read 0 and every other field nil. Message lists are only written when
// MessagesData is set.
func ShapeMap(descriptors []schema.Descriptor, m metric.Map, opts schema.ExportOptions) schema.Record {
	rec := make(schema.Record, len(descriptors))
	for _, d := range descriptors {
		if d.Kind == schema.MessagesField && !opts.MessagesData {
			continue
		}
		v := m[d.Source]
		if v == nil {
			if !opts.IncludeEmptyMetrics {
				continue
			}
			if d.Kind == schema.TotalField {
				rec[d.Name] = int64(0)
			} else {
				rec[d.Name] = nil
			}
			continue
		}
		rec[d.Name] = fieldValue(d, v)
	}
	return rec
}

func fieldValue(d schema.Descriptor, v metric.Value) any {
	switch d.Kind {
	case schema.TotalField:
		return total(v)
	case schema.LabelField:
		if l, ok := v.(metric.Label); ok {
			return string(l)
		}
	case schema.MessagesField:
		if msgs, ok := v.(metric.Messages); ok {
			return []string(slices.Clone(msgs))
		}
	default:
		h, ok := v.(*metric.Histogram)
		if !ok {
			return nil
		}
		switch d.Kind {
		case schema.AvgField:
			if mean := h.Mean(); !math.IsNaN(mean) {
				return mean
			}
		case schema.QuantileField:
			return h.Quantile(d.Quantile)
		case schema.HistogramField:
			return h.Clone()
		}
	}
	return nil
}

// total returns the scalar size of a value: the count itself, the number of
// histogram samples or the number of messages.
func total(v metric.Value) any {
	switch t := v.(type) {
	case metric.Count:
		return int64(t)
	case *metric.Histogram:
		return t.Total()
	case metric.Messages:
		return int64(len(t))
	default:
		return nil
	}
}

// BuildResultData shapes a batch into its directory tree and language totals.
func BuildResultData(results []schema.FileResult, opts schema.ExportOptions) (schema.ResultData, error) {
	descriptors := CollectDescriptors(results, opts)
	languages := agg.Languages(results)
	totalOpts := opts
	totalOpts.MessagesData = false

	totalsOf := func(files []schema.FileResult) ([]schema.LanguageTotal, error) {
		sums, err := agg.TotalByLanguage(files, languages)
		if err != nil {
			return nil, err
		}
		out := make([]schema.LanguageTotal, 0, len(sums))
		for _, s := range sums {
			out = append(out, schema.LanguageTotal{
				Language: s.Language,
				Groups:   agg.GroupsOf(files, s.Language),
				Files:    s.Files,
				Skipped:  s.Skipped,
				Metrics:  ShapeMap(descriptors, s.Metrics, totalOpts),
			})
		}
		return out, nil
	}

	data := schema.ResultData{Metrics: descriptors}
	for _, part := range agg.ByDirectory(results) {
		entry := schema.DirEntry{Dir: part.Dir, Files: make([]schema.FileEntry, 0, len(part.Results))}
		for _, r := range part.Results {
			entry.Files = append(entry.Files, schema.FileEntry{
				File:     r.File,
				Group:    r.Group,
				Language: r.Language,
				Metrics:  ShapeMap(descriptors, r.Metrics, opts),
			})
		}
		dirTotal, err := totalsOf(part.Results)
		if err != nil {
			return schema.ResultData{}, err
		}
		entry.DirTotal = dirTotal
		data.Dirs = append(data.Dirs, entry)

		if !opts.OmitFiles {
			for _, f := range entry.Files {
				f.Dir = part.Dir
				data.Files = append(data.Files, f)
			}
		}
	}

	total, err := totalsOf(results)
	if err != nil {
		return schema.ResultData{}, err
	}
	data.Total = total
	return data, nil
}

// GroupLabel summarizes the groups behind a total: the single group,
// MixedGroupMarker for several and empty for none.
func GroupLabel(groups []string) string {
	switch len(groups) {
	case 0:
		return ""
	case 1:
		return groups[0]
	default:
		return schema.MixedGroupMarker
	}
}

// Rows flattens result data into file rows, one dir-total row per language of
// each directory, and one total row per language.
func Rows(data schema.ResultData) []schema.Row {
	var rows []schema.Row
	for _, dir := range data.Dirs {
		for _, f := range dir.Files {
			rows = append(rows, schema.Row{
				Type:     schema.FileRow,
				Dir:      dir.Dir,
				File:     f.File,
				Language: f.Language,
				Group:    f.Group,
				Values:   f.Metrics,
			})
		}
		for _, t := range dir.DirTotal {
			rows = append(rows, schema.Row{
				Type:     schema.DirTotalRow,
				Dir:      dir.Dir,
				File:     schema.TotalMarker,
				Language: t.Language,
				Group:    GroupLabel(t.Groups),
				Values:   t.Metrics,
			})
		}
	}
	for _, t := range data.Total {
		rows = append(rows, schema.Row{
			Type:     schema.TotalRow,
			Dir:      schema.TotalMarker,
			File:     schema.TotalMarker,
			Language: t.Language,
			Values:   t.Metrics,
		})
	}
	return rows
}

// FieldNames returns the export names of descriptors in order.
func FieldNames(descriptors []schema.Descriptor) []string {
	out := make([]string, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Name
	}
	return out
}
