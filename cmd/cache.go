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

// backendFromViper reads and validates the backend and connection string
// stored under the <kind>-backend and <kind>-db-connect keys. An unset
// backend resolves to fallback.
func backendFromViper(kind string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString(kind + "-backend"))
	if backend == "" {
		backend = fallback
	}
	connStr := viper.GetString(kind + "-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// cacheSetupWrapper opens only the metric cache, skipping query and path validation.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("cache", schema.SQLiteBackend)
	if err != nil {
		return err
	}
	if err := iocache.InitCaching(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	cfg.CacheBackend, cfg.CacheDBConnect = backend, connStr
	return nil
}

// cacheCmd groups the metric cache subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the per-file metric cache",
	Long: `Manage the metric cache that speeds up repeated analyses.

Treemetrics caches the metrics of every file keyed by its language, its content
and the queries that ran over it. Unchanged files are not parsed again.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  treemetrics cache status

  # Clear cache after upgrading grammars
  treemetrics cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached metrics",
	Long: `Delete all cached file metrics from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  treemetrics cache clear

  # Clear MySQL cache (set connection string via env variable)
  TREEMETRICS_CACHE_BACKEND=mysql TREEMETRICS_CACHE_DB_CONNECT="..." treemetrics cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, entry count, newest and oldest entries and table size
of the metric cache.

Examples:
  treemetrics cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetMetricStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("metric cache is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
