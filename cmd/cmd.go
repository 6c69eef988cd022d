// Package cmd defines the command-line interface for treemetrics.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("language", "", "Analyze every file as this language instead of detecting it")
	flags.String("group", "", "Group label given to every analyzed file")
	flags.StringP("filter", "f", "", "Only analyze files whose relative path matches this regular expression")
	flags.String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	flags.Bool("keep-vendor", false, "Keep vendored and generated third-party files")
	flags.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or both")
	flags.StringP("output-file", "o", "", "Optional path to write output to (the extension selects the format)")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("stats-file", "", "Write run counters in Prometheus text format to this file")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Metric cache backend: sqlite or mysql or postgresql or none")
	flags.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	flags.String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	flags.String("config", "", "Path to config file")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")

	// Query selection
	flags.String("metrics", "", "Regular expression selecting standard metrics by name")
	flags.Bool("standard-queries", true, "Run the standard query catalogue of each language")
	flags.String("node-types", "", "Comma-separated node types to count under their own name")
	flags.Bool("all-node-types", false, "Count every node type (for exploring a grammar)")
	flags.StringArray("query", nil, "Ad-hoc query as name=pattern (repeatable)")
	flags.String("query-file", "", "YAML file mapping metric names to tree-sitter patterns")

	// Aggregation and export shaping
	flags.String("group-by", string(schema.GroupByGroup), "Sum results by group or file or lang or dir")
	flags.String("normalize-to", "", "Comma-separated counts that totals are expressed against (default expressions,statements,function_defs)")
	flags.String("quantiles", "", "Comma-separated distribution quantiles to export (default 0.2,0.5,0.8)")
	flags.Bool("histogram-data", false, "Export raw distributions")
	flags.Bool("messages-data", false, "Export message lists such as TODO comments")
	flags.Bool("omit-files", false, "Leave the flat file listing out of tree output")
	flags.Bool("include-empty-metrics", false, "Write absent metrics as zero or null")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
