package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/schema"
)

func hist(t *testing.T, buckets, counts []int64) *metric.Histogram {
	t.Helper()
	h, err := metric.NewHistogramWithCounts(buckets, counts)
	require.NoError(t, err)
	return h
}

func TestQuantileName(t *testing.T) {
	assert.Equal(t, "lines_p50", QuantileName("lines", 0.5))
	assert.Equal(t, "lines_p20", QuantileName("lines", 0.2))
	assert.Equal(t, "lines_p29", QuantileName("lines", 0.29))
	assert.Equal(t, "lines_p99.9", QuantileName("lines", 0.999))
	assert.Equal(t, "lines_p100", QuantileName("lines", 1))
}

func TestCollectDescriptors(t *testing.T) {
	results := []schema.FileResult{
		{Metrics: metric.Map{
			"statements":     metric.Count(3),
			"identifier_len": metric.NewHistogram(1, 2),
			"todo_comments":  metric.Messages{"TODO: x"},
			"language":       metric.Label("python"),
		}},
		// a later file cannot change the kind of an existing export name
		{Metrics: metric.Map{"statements": metric.NewHistogram(1), "function_defs": metric.Count(1)}},
	}

	opts := schema.ExportOptions{Quantiles: []float64{0.5}, HistogramData: true, MessagesData: true}
	descs := CollectDescriptors(results, opts)
	assert.Equal(t, []string{
		"function_defs_total",
		"identifier_len_avg",
		"identifier_len_histogram",
		"identifier_len_p50",
		"identifier_len_total",
		"language",
		"statements_avg",
		"statements_histogram",
		"statements_p50",
		"statements_total",
		"todo_comments_messages",
		"todo_comments_total",
	}, FieldNames(descs))

	byName := make(map[string]schema.Descriptor)
	for _, d := range descs {
		byName[d.Name] = d
	}
	assert.Equal(t, schema.TotalField, byName["statements_total"].Kind)
	assert.Equal(t, "statements", byName["statements_total"].Source)
	assert.Equal(t, schema.QuantileField, byName["identifier_len_p50"].Kind)
	assert.InDelta(t, 0.5, byName["identifier_len_p50"].Quantile, 1e-9)
	assert.Equal(t, schema.LabelField, byName["language"].Kind)

	t.Run("optional fields", func(t *testing.T) {
		descs := CollectDescriptors(results[:1], schema.ExportOptions{})
		assert.Equal(t, []string{
			"identifier_len_avg",
			"identifier_len_total",
			"language",
			"statements_total",
			"todo_comments_total",
		}, FieldNames(descs))
	})
}

func TestShapeMap(t *testing.T) {
	h := hist(t, []int64{1, 2, 3, 4}, []int64{1, 1, 1, 1})
	m := metric.Map{
		"statements":     metric.Count(3),
		"identifier_len": h,
		"todo_comments":  metric.Messages{"TODO: a", "FIXME: b"},
		"language":       metric.Label("python"),
	}
	opts := schema.ExportOptions{Quantiles: []float64{0.5}, HistogramData: true, MessagesData: true}
	descs := CollectDescriptors([]schema.FileResult{{Metrics: m}}, opts)

	rec := ShapeMap(descs, m, opts)
	assert.Equal(t, int64(3), rec["statements_total"])
	assert.Equal(t, h.Total(), rec["identifier_len_total"])
	assert.InDelta(t, 2.5, rec["identifier_len_avg"], 1e-9)
	assert.Equal(t, int64(2), rec["identifier_len_p50"])
	assert.Equal(t, h, rec["identifier_len_histogram"])
	assert.Equal(t, int64(2), rec["todo_comments_total"])
	assert.Equal(t, []string{"TODO: a", "FIXME: b"}, rec["todo_comments_messages"])
	assert.Equal(t, "python", rec["language"])

	t.Run("absent metrics", func(t *testing.T) {
		rec := ShapeMap(descs, metric.Map{"statements": metric.Count(1)}, opts)
		assert.Equal(t, schema.Record{"statements_total": int64(1)}, rec)
	})

	t.Run("include empty metrics", func(t *testing.T) {
		withEmpty := opts
		withEmpty.IncludeEmptyMetrics = true
		rec := ShapeMap(descs, metric.Map{}, withEmpty)
		assert.Equal(t, int64(0), rec["statements_total"])
		assert.Equal(t, int64(0), rec["identifier_len_total"])
		assert.Contains(t, rec, "identifier_len_avg")
		assert.Nil(t, rec["identifier_len_avg"])
		assert.Contains(t, rec, "language")
		assert.Nil(t, rec["language"])
	})

	t.Run("messages disabled", func(t *testing.T) {
		noMessages := opts
		noMessages.MessagesData = false
		rec := ShapeMap(descs, m, noMessages)
		assert.NotContains(t, rec, "todo_comments_messages")
		assert.Equal(t, int64(2), rec["todo_comments_total"])
	})

	t.Run("empty histogram mean", func(t *testing.T) {
		rec := ShapeMap(descs, metric.Map{"identifier_len": metric.NewHistogram()}, opts)
		assert.Contains(t, rec, "identifier_len_avg")
		assert.Nil(t, rec["identifier_len_avg"])
		assert.Equal(t, int64(0), rec["identifier_len_total"])
	})
}

func sampleResults() []schema.FileResult {
	return []schema.FileResult{
		{Dir: "repo", Group: "api", Language: "python", File: "b.py", Metrics: metric.Map{
			"statements":    metric.Count(2),
			"todo_comments": metric.Messages{"TODO: b"},
		}},
		{Dir: "repo", Group: "web", Language: "python", File: "a.py", Metrics: metric.Map{"statements": metric.Count(3)}},
		{Dir: "repo", Group: "web", Language: "typescript", File: "c.ts", Metrics: metric.Map{"statements": metric.Count(5)}},
		{Dir: "lib", Group: "", Language: "python", File: "d.py", Metrics: metric.Map{
			"statements": metric.Count(10),
			"ERROR":      metric.Count(5),
		}},
	}
}

func TestBuildResultData(t *testing.T) {
	opts := schema.ExportOptions{MessagesData: true}
	data, err := BuildResultData(sampleResults(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"ERROR_total", "statements_total", "todo_comments_messages", "todo_comments_total"}, FieldNames(data.Metrics))

	require.Len(t, data.Dirs, 2)
	lib, repo := data.Dirs[0], data.Dirs[1]
	assert.Equal(t, "lib", lib.Dir)
	assert.Equal(t, "repo", repo.Dir)

	require.Len(t, repo.Files, 3)
	assert.Equal(t, "a.py", repo.Files[0].File)
	assert.Equal(t, "b.py", repo.Files[1].File)
	assert.Equal(t, []string{"TODO: b"}, repo.Files[1].Metrics["todo_comments_messages"])

	require.Len(t, repo.DirTotal, 2)
	py := repo.DirTotal[0]
	assert.Equal(t, "python", py.Language)
	assert.Equal(t, []string{"api", "web"}, py.Groups)
	assert.Equal(t, 2, py.Files)
	assert.Equal(t, int64(5), py.Metrics["statements_total"])
	assert.NotContains(t, py.Metrics, "todo_comments_messages")
	assert.Equal(t, int64(1), py.Metrics["todo_comments_total"])

	// the only file of lib is a parse outlier
	require.Len(t, lib.DirTotal, 1)
	assert.Equal(t, 1, lib.DirTotal[0].Skipped)
	assert.Empty(t, lib.DirTotal[0].Metrics)

	require.Len(t, data.Total, 2)
	assert.Equal(t, "python", data.Total[0].Language)
	assert.Equal(t, int64(5), data.Total[0].Metrics["statements_total"])
	assert.Equal(t, "typescript", data.Total[1].Language)
	assert.Equal(t, int64(5), data.Total[1].Metrics["statements_total"])

	require.Len(t, data.Files, 4)
	assert.Equal(t, "lib", data.Files[0].Dir)
	assert.Equal(t, "d.py", data.Files[0].File)

	t.Run("omit files", func(t *testing.T) {
		data, err := BuildResultData(sampleResults(), schema.ExportOptions{OmitFiles: true})
		require.NoError(t, err)
		assert.Empty(t, data.Files)
		assert.Len(t, data.Dirs, 2)
	})

	t.Run("incompatible kinds", func(t *testing.T) {
		results := []schema.FileResult{
			{Dir: "x", Language: "go", File: "a.go", Metrics: metric.Map{"k": metric.Label("a")}},
			{Dir: "x", Language: "go", File: "b.go", Metrics: metric.Map{"k": metric.Label("b")}},
		}
		_, err := BuildResultData(results, schema.ExportOptions{})
		assert.ErrorIs(t, err, metric.ErrIncompatibleKinds)
	})
}

func TestRows(t *testing.T) {
	data, err := BuildResultData(sampleResults(), schema.ExportOptions{IncludeEmptyMetrics: true})
	require.NoError(t, err)

	rows := Rows(data)
	var kinds []schema.RowKind
	for _, r := range rows {
		kinds = append(kinds, r.Type)
	}
	assert.Equal(t, []schema.RowKind{
		schema.FileRow, schema.DirTotalRow,
		schema.FileRow, schema.FileRow, schema.FileRow, schema.DirTotalRow, schema.DirTotalRow,
		schema.TotalRow, schema.TotalRow,
	}, kinds)

	libTotal := rows[1]
	assert.Equal(t, "lib", libTotal.Dir)
	assert.Equal(t, schema.TotalMarker, libTotal.File)
	assert.Equal(t, "", libTotal.Group)
	assert.Equal(t, int64(0), libTotal.Values["statements_total"])

	pyTotal := rows[5]
	assert.Equal(t, "python", pyTotal.Language)
	assert.Equal(t, schema.MixedGroupMarker, pyTotal.Group)

	tsTotal := rows[6]
	assert.Equal(t, "web", tsTotal.Group)

	grand := rows[7]
	assert.Equal(t, schema.TotalMarker, grand.Dir)
	assert.Equal(t, schema.TotalMarker, grand.File)
	assert.Equal(t, "", grand.Group)
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "", GroupLabel(nil))
	assert.Equal(t, "api", GroupLabel([]string{"api"}))
	assert.Equal(t, "?", GroupLabel([]string{"api", "web"}))
}
