package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/treemetrics/core/agg"
	"github.com/huangsam/treemetrics/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxPrecision     = 3
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultNormalizeTo lists the metrics grouped counts are expressed against.
var DefaultNormalizeTo = []string{"expressions", "statements", "function_defs"}

// AdHocQuery is a named tree-sitter pattern supplied by the user.
type AdHocQuery struct {
	Name    string
	Pattern string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Paths      []string
	Language   string // Forced language; empty means detect per file
	Group      string // Group label of every file in a single run
	Filter     *regexp.Regexp
	Excludes   []string
	KeepVendor bool
	Workers    int

	Metrics         *regexp.Regexp // Selects standard catalogue entries; nil keeps all
	StandardQueries bool
	NodeTypes       []string
	AllNodeTypes    bool
	Queries         []AdHocQuery

	GroupBy     schema.GroupMode
	NormalizeTo []string
	Export      schema.ExportOptions
	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	StatsFile   string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Paths []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Language          string `mapstructure:"language"`
	Group             string `mapstructure:"group"`
	Filter            string `mapstructure:"filter"`
	Exclude           string `mapstructure:"exclude"`
	KeepVendor        bool   `mapstructure:"keep-vendor"`
	Workers           int    `mapstructure:"workers"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	StatsFile         string `mapstructure:"stats-file"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Query selection ---
	Metrics         string   `mapstructure:"metrics"`
	StandardQueries bool     `mapstructure:"standard-queries"`
	NodeTypes       string   `mapstructure:"node-types"`
	AllNodeTypes    bool     `mapstructure:"all-node-types"`
	Query           []string `mapstructure:"query"`
	QueryFile       string   `mapstructure:"query-file"`

	// --- Aggregation and export shaping ---
	GroupBy             string `mapstructure:"group-by"`
	NormalizeTo         string `mapstructure:"normalize-to"`
	Quantiles           string `mapstructure:"quantiles"`
	HistogramData       bool   `mapstructure:"histogram-data"`
	MessagesData        bool   `mapstructure:"messages-data"`
	OmitFiles           bool   `mapstructure:"omit-files"`
	IncludeEmptyMetrics bool   `mapstructure:"include-empty-metrics"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Paths = slices.Clone(c.Paths)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.NodeTypes = slices.Clone(c.NodeTypes)
	clone.Queries = slices.Clone(c.Queries)
	clone.NormalizeTo = slices.Clone(c.NormalizeTo)
	clone.Export.Quantiles = slices.Clone(c.Export.Quantiles)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processExportOptions(cfg, input); err != nil {
		return err
	}
	if err := processQueries(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and analysis must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the fields that need no lookups.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Paths = slices.Clone(input.Paths)
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	cfg.Language = strings.TrimSpace(input.Language)
	cfg.Group = strings.TrimSpace(input.Group)
	cfg.KeepVendor = input.KeepVendor
	cfg.Width = input.Width
	cfg.StatsFile = input.StatsFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Filter Validation ---
	cfg.Filter = nil
	if input.Filter != "" {
		re, err := regexp.Compile(input.Filter)
		if err != nil {
			return fmt.Errorf("invalid --filter expression: %w", err)
		}
		cfg.Filter = re
	}

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.OutputFile = input.OutputFile
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" || (cfg.Output == schema.TextOut && cfg.OutputFile != "") {
		cfg.Output = OutputModeForFile(cfg.OutputFile)
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, both", input.Output)
	}

	// --- 4. Grouping Validation ---
	cfg.GroupBy = agg.ParseGroupMode(input.GroupBy)

	// --- 5. Excludes Processing ---
	defaults := []string{
		".min.js", ".min.css", ".d.ts",
		"dist/", "build/", "out/", "target/", "bin/", "obj/",
		"__pycache__/", ".venv/", "venv/",
	}
	cfg.Excludes = append(defaults, SplitList(input.Exclude)...)
	return nil
}

// OutputModeForFile derives the output format from an output file extension.
// A file without extension gets both the json and csv forms.
func OutputModeForFile(path string) schema.OutputMode {
	if path == "" {
		return schema.TextOut
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return schema.JSONOut
	case ".csv":
		return schema.CSVOut
	case ".parquet":
		return schema.ParquetOut
	case "":
		return schema.BothOut
	default:
		return schema.TextOut
	}
}

// processExportOptions handles the aggregation and shaping options.
func processExportOptions(cfg *Config, input *ConfigRawInput) error {
	quantiles := schema.DefaultQuantiles
	if input.Quantiles != "" {
		parsed, err := ParseQuantiles(input.Quantiles)
		if err != nil {
			return err
		}
		quantiles = parsed
	}
	cfg.Export = schema.ExportOptions{
		Quantiles:           slices.Clone(quantiles),
		HistogramData:       input.HistogramData,
		MessagesData:        input.MessagesData,
		OmitFiles:           input.OmitFiles,
		IncludeEmptyMetrics: input.IncludeEmptyMetrics,
	}

	cfg.NormalizeTo = DefaultNormalizeTo
	if input.NormalizeTo != "" {
		cfg.NormalizeTo = SplitList(input.NormalizeTo)
	}
	return nil
}

// processQueries resolves the query selection flags.
func processQueries(cfg *Config, input *ConfigRawInput) error {
	cfg.StandardQueries = input.StandardQueries
	cfg.AllNodeTypes = input.AllNodeTypes
	cfg.NodeTypes = SplitList(input.NodeTypes)

	cfg.Metrics = nil
	if input.Metrics != "" {
		re, err := regexp.Compile(input.Metrics)
		if err != nil {
			return fmt.Errorf("invalid --metrics expression: %w", err)
		}
		cfg.Metrics = re
	}

	cfg.Queries = nil
	for _, q := range input.Query {
		name, pattern, ok := strings.Cut(q, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("invalid --query '%s', expected name=pattern", q)
		}
		cfg.Queries = append(cfg.Queries, AdHocQuery{Name: strings.TrimSpace(name), Pattern: pattern})
	}
	if input.QueryFile != "" {
		fromFile, err := LoadQueryFile(input.QueryFile)
		if err != nil {
			return err
		}
		cfg.Queries = append(cfg.Queries, fromFile...)
	}

	if !cfg.StandardQueries && !cfg.AllNodeTypes && len(cfg.NodeTypes) == 0 && len(cfg.Queries) == 0 {
		return fmt.Errorf("no queries selected: enable standard queries or pass --query, --node-types or --all-node-types")
	}
	return nil
}

// LoadQueryFile reads a YAML mapping of metric names to tree-sitter patterns.
// Queries are returned sorted by name.
func LoadQueryFile(path string) ([]AdHocQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse query file %s: %w", path, err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]AdHocQuery, 0, len(names))
	for _, name := range names {
		out = append(out, AdHocQuery{Name: name, Pattern: raw[name]})
	}
	return out, nil
}
