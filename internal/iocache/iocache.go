// Package iocache persists metric maps across runs and tracks analysis runs.
package iocache

import (
	"sync"

	"github.com/huangsam/treemetrics/internal/contract"
)

// CacheStoreManager hands out the metric cache and the analysis store.
// Either may be nil when its backend is not configured.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	metric       contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetMetricStore returns the per-file metric CacheStore.
func (mgr *CacheStoreManager) GetMetricStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.metric
}

// GetAnalysisStore returns the analysis AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
