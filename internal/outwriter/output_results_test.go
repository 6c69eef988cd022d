package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/core/shape"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

func identifierLengths(t *testing.T) *metric.Histogram {
	h, err := metric.NewHistogramWithCounts([]int64{3, 5}, []int64{1, 1})
	require.NoError(t, err)
	return h
}

func sampleOutput(t *testing.T) *schema.AnalysisOutput {
	return &schema.AnalysisOutput{
		Results: []schema.FileResult{
			{Dir: "src", Group: "api", Language: "python", File: "x.py", Metrics: metric.Map{
				"statements":    metric.Count(2),
				"function_defs": metric.Count(1),
			}},
			{Dir: "src", Group: "api", Language: "python", File: "y.py", Metrics: metric.Map{
				"statements":     metric.Count(1),
				"identifier_len": identifierLengths(t),
			}},
		},
	}
}

func reportConfig() *contract.Config {
	return &contract.Config{
		Output:       schema.TextOut,
		GroupBy:      schema.GroupByGroup,
		NormalizeTo:  []string{"statements", "expressions"},
		Precision:    1,
		Width:        200,
		Workers:      2,
		CacheBackend: schema.NoneBackend,
	}
}

func TestWriteResultsTable(t *testing.T) {
	cfg := reportConfig()
	fmtFloat := floatFormatter(cfg.Precision)

	var buf bytes.Buffer
	err := writeResultsTable(sampleOutput(t), cfg, fmtFloat, time.Second, &buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "function_defs")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "mean = 4.0")
	assert.Contains(t, out, "Clean")
	assert.Contains(t, out, "Analyzed 2 files with 3 metrics")
	assert.Contains(t, out, "Cache backend: none")

	// metrics are listed case-insensitively in order
	assert.Less(t, strings.Index(out, "function_defs"), strings.Index(out, "identifier_len"))
	assert.Less(t, strings.Index(out, "identifier_len"), strings.Index(out, "statements"))
}

func TestReportCells(t *testing.T) {
	fmtFloat := floatFormatter(1)
	m := metric.Map{"statements": metric.Count(4), "zero": metric.Count(0)}

	assert.Equal(t, []string{"1", "25.0%", "-", "-", ""},
		reportCells(metric.Count(1), m, []string{"statements", "zero", "missing"}, fmtFloat))
	assert.Equal(t, []string{"2", "", "3 .. 3 .. 5  mean = 4.0"},
		reportCells(identifierLengths(t), m, []string{"statements"}, fmtFloat))
	assert.Equal(t, []string{"0", "-"}, reportCells(metric.NewHistogram(), m, nil, fmtFloat))
	assert.Equal(t, []string{"12,345", "-"}, reportCells(metric.Count(12345), m, []string{"zero"}, fmtFloat)[:2])
	assert.Equal(t, []string{"2", ""}, reportCells(metric.Messages{"a", "b"}, m, nil, fmtFloat))
	assert.Equal(t, []string{"clean", ""}, reportCells(metric.Label("clean"), m, nil, fmtFloat))
}

func TestReportMetricNames(t *testing.T) {
	grouped := []schema.GroupedTotal{
		{Key: "a", Metrics: metric.Map{"b": metric.Count(1), "ERROR": metric.Count(1)}},
		{Key: "b", Metrics: metric.Map{"a": metric.Count(1), "Assign": metric.Count(1)}},
	}
	assert.Equal(t, []string{"a", "Assign", "b", "ERROR"}, reportMetricNames(grouped))
}

func TestWriteResultsCSV(t *testing.T) {
	fmtFloat := floatFormatter(1)
	data, err := shape.BuildResultData(sampleOutput(t).Results, schema.ExportOptions{IncludeEmptyMetrics: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeResultsCSV(&buf, data, fmtFloat))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"type", "dir", "file", "lang", "group", "function_defs_total", "identifier_len_avg", "identifier_len_total", "statements_total"}, records[0])
	assert.Equal(t, []string{"file", "src", "x.py", "python", "api", "1", "", "0", "2"}, records[1])
	assert.Equal(t, []string{"file", "src", "y.py", "python", "api", "0", "4.0", "2", "1"}, records[2])
	assert.Equal(t, []string{"dir-total", "src", "//total", "python", "api", "1", "4.0", "2", "3"}, records[3])
	assert.Equal(t, []string{"total", "//total", "//total", "python", "", "1", "4.0", "2", "3"}, records[4])
}

func TestFormatCell(t *testing.T) {
	fmtFloat := floatFormatter(2)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{int64(7), "7"},
		{3, "3"},
		{1.5, "1.50"},
		{"clean", "clean"},
		{[]string{"a", "b"}, "a;b"},
	}
	for _, tt := range tests {
		got, err := formatCell(tt.in, fmtFloat)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	h := identifierLengths(t)
	got, err := formatCell(h, fmtFloat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"buckets":[3,5],"counts":[1,1]}`, got)
}

func TestWriteAnalysisResultsFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		cfg := reportConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(dir, "out.json")
		require.NoError(t, WriteAnalysisResults(sampleOutput(t), cfg, time.Second))

		content, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var data map[string]any
		require.NoError(t, json.Unmarshal(content, &data))
		assert.Contains(t, data, "files")
		assert.Contains(t, data, "dirs")
		assert.Contains(t, data, "total")
	})

	t.Run("both", func(t *testing.T) {
		cfg := reportConfig()
		cfg.Output = schema.BothOut
		cfg.OutputFile = filepath.Join(dir, "report")
		require.NoError(t, WriteAnalysisResults(sampleOutput(t), cfg, time.Second))
		assert.FileExists(t, filepath.Join(dir, "report.json"))
		assert.FileExists(t, filepath.Join(dir, "report.csv"))
	})

	t.Run("both without file", func(t *testing.T) {
		cfg := reportConfig()
		cfg.Output = schema.BothOut
		assert.Error(t, WriteAnalysisResults(sampleOutput(t), cfg, time.Second))
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := reportConfig()
		cfg.Output = schema.ParquetOut
		cfg.OutputFile = filepath.Join(dir, "out.parquet")
		require.NoError(t, WriteAnalysisResults(sampleOutput(t), cfg, time.Second))
		assert.FileExists(t, cfg.OutputFile)

		cfg.OutputFile = ""
		assert.Error(t, WriteAnalysisResults(sampleOutput(t), cfg, time.Second))
	})

	t.Run("text", func(t *testing.T) {
		cfg := reportConfig()
		cfg.OutputFile = filepath.Join(dir, "out.txt")
		require.NoError(t, NewOutWriter().WriteResults(sampleOutput(t), cfg, time.Second))
		content, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Analyzed 2 files with 3 metrics")
	})
}

func TestGetMaxTablePathWidth(t *testing.T) {
	cfg := &contract.Config{Width: 200}
	assert.Equal(t, 60, GetMaxTablePathWidth(cfg))

	cfg = &contract.Config{Width: 100, NormalizeTo: []string{"statements"}}
	assert.Equal(t, 15, GetMaxTablePathWidth(cfg))

	cfg = &contract.Config{Width: 110}
	assert.Equal(t, 30, GetMaxTablePathWidth(cfg))
}
