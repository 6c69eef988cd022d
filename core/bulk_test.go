package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

func TestAnalyzeBulk(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"svc/main.py":  pythonSample,
		"svc/skip.py":  "h()\n",
		"web/index.js": "f(1);\n",
	})
	noStandard := false
	def := contract.Definition{
		"python": {
			Paths:           []string{filepath.Join(dir, "svc")},
			Filter:          `main`,
			StandardQueries: &noStandard,
			Queries:         map[string]string{"calls": "(call) @call"},
		},
		"broken": {Language: "cobol", Paths: []string{dir}},
		"empty":  {Language: "go", Paths: []string{dir}},
		"web": {
			Language:        "javascript",
			Paths:           []string{filepath.Join(dir, "web")},
			StandardQueries: &noStandard,
			Queries:         map[string]string{"calls": "(call_expression) @call"},
		},
	}

	output, err := AnalyzeBulk(context.Background(), &contract.Config{Workers: 2}, def, BatchOptions{})
	require.NoError(t, err)
	require.Len(t, output.Results, 2)
	assert.Equal(t, "python", output.Results[0].Group)
	assert.Equal(t, "main.py", output.Results[0].File)
	assert.Equal(t, metric.Count(2), output.Results[0].Metrics["calls"])
	assert.Equal(t, "web", output.Results[1].Group)
	assert.Equal(t, metric.Count(1), output.Results[1].Metrics["calls"])

	var failed []string
	for _, d := range output.Diagnostics {
		if d.Kind == schema.GroupFailed {
			failed = append(failed, d.Group)
		}
	}
	assert.Equal(t, []string{"broken", "empty"}, failed)
}

func TestAnalyzeGroupNoQueries(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.py": "h()\n"})
	noStandard := false
	_, err := analyzeGroup(context.Background(), &contract.Config{Workers: 1}, "python",
		contract.GroupDefinition{Paths: []string{dir}, StandardQueries: &noStandard}, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no queries")
}

func TestAnalyzeBulkCanceled(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.py": "h()\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	def := contract.Definition{"python": {Paths: []string{dir}}}

	_, err := AnalyzeBulk(ctx, &contract.Config{Workers: 1}, def, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteBulk(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc/a.py": "h()\n"})
	defPath := filepath.Join(dir, "groups.yaml")
	require.NoError(t, os.WriteFile(defPath, []byte("python:\n  paths: ["+filepath.Join(dir, "svc")+"]\n"), 0o644))

	cfg := &contract.Config{
		Paths:      []string{defPath},
		Workers:    1,
		Output:     schema.JSONOut,
		OutputFile: filepath.Join(dir, "out.json"),
		StatsFile:  filepath.Join(dir, "stats.prom"),
	}
	require.NoError(t, ExecuteBulk(WithSuppressHeader(context.Background()), cfg))
	assert.FileExists(t, cfg.OutputFile)
	assert.FileExists(t, cfg.StatsFile)

	cfg.Paths = []string{defPath, defPath}
	assert.Error(t, ExecuteBulk(context.Background(), cfg))
}
