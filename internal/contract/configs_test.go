package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/treemetrics/schema"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:         4,
		Precision:       1,
		Output:          "text",
		Color:           "no",
		CacheBackend:    "none",
		StandardQueries: true,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid workers (zero)", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "invalid workers (negative)", mutate: func(in *ConfigRawInput) { in.Workers = -1 }, expectError: true},
		{name: "invalid precision (zero)", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: true},
		{name: "invalid precision (too high)", mutate: func(in *ConfigRawInput) { in.Precision = 4 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid filter", mutate: func(in *ConfigRawInput) { in.Filter = "(" }, expectError: true},
		{name: "invalid metrics", mutate: func(in *ConfigRawInput) { in.Metrics = "[" }, expectError: true},
		{name: "invalid quantiles", mutate: func(in *ConfigRawInput) { in.Quantiles = "p120" }, expectError: true},
		{name: "query without pattern", mutate: func(in *ConfigRawInput) { in.Query = []string{"calls"} }, expectError: true},
		{
			name: "no queries selected",
			mutate: func(in *ConfigRawInput) {
				in.StandardQueries = false
			},
			expectError: true,
		},
		{
			name: "node types only",
			mutate: func(in *ConfigRawInput) {
				in.StandardQueries = false
				in.NodeTypes = "identifier, string"
			},
		},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{
			name: "mysql without connection string",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
			},
			expectError: true,
		},
		{
			name: "postgresql with connection string",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = "postgresql"
				in.AnalysisDBConnect = "host=localhost dbname=treemetrics"
			},
		},
		{
			name: "same sqlite file for cache and analysis",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.CacheDBConnect = "/tmp/one.db"
				in.AnalysisBackend = "sqlite"
				in.AnalysisDBConnect = "/tmp/one.db"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateValues(t *testing.T) {
	input := validInput()
	input.Paths = []string{"src", "lib"}
	input.Output = ""
	input.OutputFile = "report.json"
	input.GroupBy = "Language"
	input.Quantiles = "p10,0.9"
	input.NormalizeTo = "lines"
	input.Exclude = "gen/, *.pb.go"
	input.Query = []string{"calls=(call_expression) @default"}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []string{"src", "lib"}, cfg.Paths)
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, schema.GroupByLanguage, cfg.GroupBy)
	assert.Equal(t, []float64{0.1, 0.9}, cfg.Export.Quantiles)
	assert.Equal(t, []string{"lines"}, cfg.NormalizeTo)
	assert.Contains(t, cfg.Excludes, "gen/")
	assert.Contains(t, cfg.Excludes, "*.pb.go")
	assert.Contains(t, cfg.Excludes, "dist/")
	assert.Equal(t, []AdHocQuery{{Name: "calls", Pattern: "(call_expression) @default"}}, cfg.Queries)

	t.Run("defaults", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, validInput()))
		assert.Equal(t, []string{"."}, cfg.Paths)
		assert.Equal(t, schema.TextOut, cfg.Output)
		assert.Equal(t, schema.GroupByGroup, cfg.GroupBy)
		assert.Equal(t, schema.DefaultQuantiles, cfg.Export.Quantiles)
		assert.Equal(t, DefaultNormalizeTo, cfg.NormalizeTo)
		assert.Nil(t, cfg.Filter)
	})

	t.Run("group-by without keyword", func(t *testing.T) {
		in := validInput()
		in.GroupBy = "owner"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, in))
		assert.Equal(t, schema.GroupByNone, cfg.GroupBy)
	})
}

func TestOutputModeForFile(t *testing.T) {
	tests := []struct {
		path     string
		expected schema.OutputMode
	}{
		{"", schema.TextOut},
		{"out.json", schema.JSONOut},
		{"out.CSV", schema.CSVOut},
		{"out.parquet", schema.ParquetOut},
		{"out", schema.BothOut},
		{"out.txt", schema.TextOut},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputModeForFile(tt.path))
		})
	}
}

func TestLoadQueryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	content := "returns: (return_statement) @default\ncalls: (call) @default\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	queries, err := LoadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, []AdHocQuery{
		{Name: "calls", Pattern: "(call) @default"},
		{Name: "returns", Pattern: "(return_statement) @default"},
	}, queries)

	_, err = LoadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- a\n- b\n"), 0o644))
	_, err = LoadQueryFile(bad)
	assert.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Paths:    []string{"a"},
		Excludes: []string{"dist/"},
		Export:   schema.ExportOptions{Quantiles: []float64{0.5}},
	}
	clone := cfg.Clone()
	clone.Paths[0] = "b"
	clone.Export.Quantiles[0] = 0.9
	clone.Excludes = append(clone.Excludes, "build/")

	assert.Equal(t, []string{"a"}, cfg.Paths)
	assert.Equal(t, []float64{0.5}, cfg.Export.Quantiles)
	assert.Equal(t, []string{"dist/"}, cfg.Excludes)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.NoneBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/treemetrics"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@localhost/treemetrics"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@tcp(localhost:3306)"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=treemetrics"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "dbname=treemetrics"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, ""))
}
