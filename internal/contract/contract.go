// Package contract provides interfaces and shared utilities for the treemetrics internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/treemetrics/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetMetricStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing file results.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalFiles int, totalDiagnostics int) error

	// RecordFileResult stores the metric map computed for one file
	RecordFileResult(analysisID int64, result schema.FileResult) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded analysis run
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllFileMetrics returns every recorded file result
	GetAllFileMetrics() ([]schema.FileMetricsRecord, error)

	// Close closes the underlying connection
	Close() error
}
