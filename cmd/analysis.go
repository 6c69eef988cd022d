package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/iocache"
	"github.com/huangsam/treemetrics/schema"
)

// analysisSetupWrapper opens only the analysis store.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("analysis", schema.NoneBackend)
	if err != nil {
		return err
	}
	if err := iocache.InitCaching("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}
	cfg.AnalysisBackend, cfg.AnalysisDBConnect = backend, connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// analysisMigrateSetupWrapper resolves the analysis backend without opening
// the store, so migrations can start from an empty database.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("analysis", schema.NoneBackend)
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAnalysisDBFilePath()
	}
	cfg.AnalysisBackend, cfg.AnalysisDBConnect = backend, connStr
	return nil
}

// analysisCmd groups the analysis history subcommands.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage tracked analysis runs and exports",
	Long: `Manage the history of analysis runs.

When an analysis backend is configured, treemetrics records every run:
- Run metadata (start and end time, configuration, file and diagnostic counts)
- The metrics of every analyzed file

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show analysis tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  treemetrics analysis status --analysis-backend sqlite
  treemetrics analysis export --analysis-backend sqlite --output-file history`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked analysis runs",
	Long: `Delete all stored analysis runs and their file metrics.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  treemetrics analysis export --output-file backup
  treemetrics analysis clear`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, contract.GetAnalysisDBFilePath(), cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show the backend, run count, newest and oldest runs, total file records and
table sizes of the analysis store.

Examples:
  treemetrics analysis status`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetAnalysisStore()
		if store == nil {
			contract.LogFatal("Failed to get analysis status", errors.New("analysis tracking is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracked runs to Parquet for analytics",
	Long: `Export all stored analysis data to Parquet.

Writes two files next to the given prefix:
- <prefix>.analysis_runs.parquet - one row per run
- <prefix>.file_metrics.parquet  - one row per file and metric

Requires: --output-file parameter

Examples:
  treemetrics analysis export --output-file history
  duckdb -c "SELECT metric, sum(count) FROM read_parquet('history.file_metrics.parquet') GROUP BY 1"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the analysis tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  treemetrics analysis migrate --analysis-backend sqlite

  # Rollback to initial state
  treemetrics analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
