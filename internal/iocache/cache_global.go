package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// metricTable is the name of the table for per-file metric caching.
const metricTable = "treemetrics_metric_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitCaching initializes the global cache manager with separate cache and analysis stores.
// cacheBackend can be empty to disable the metric cache.
// analysisBackend can be empty to disable analysis tracking.
func InitCaching(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var metricStore contract.CacheStore
		if cacheBackend != "" {
			metricStore, err = NewCacheStore(metricTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize metric caching: %w", err)
				return
			}
		}

		var analysisStore contract.AnalysisStore
		if analysisBackend != "" {
			analysisStore, err = NewAnalysisStore(analysisBackend, analysisConnStr)
			if err != nil {
				if metricStore != nil {
					_ = metricStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize analysis store: %w", err)
				return
			}
		}

		Manager.Lock()
		Manager.metric = metricStore
		Manager.analysis = analysisStore
		Manager.Unlock()
	})

	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.metric != nil {
			_ = Manager.metric.Close()
		}
		if Manager.analysis != nil {
			_ = Manager.analysis.Close()
		}
	})
}

// ClearCache removes every cached file metric.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, metricTable)
}

// ClearAnalysis removes every recorded run along with the migration history.
func ClearAnalysis(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, analysisRunsTable, fileMetricsTable, migrationsTable)
}

// clearTables removes a SQLite file outright or drops the tables from a server database.
func clearTables(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	if backend == schema.NoneBackend {
		return nil
	}
	if backend == schema.SQLiteBackend {
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil
	}

	d, err := dialectFor(backend)
	if err != nil {
		return fmt.Errorf("cannot clear %s: %w", backend, err)
	}
	db, err := d.open(connStr, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + d.table(table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
