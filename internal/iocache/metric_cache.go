package iocache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/internal/contract"
)

// metricCacheVersion changes whenever the stored encoding of a metric map does.
const metricCacheVersion = 1

// MetricCacheKey identifies the metrics of one file content under one query set.
func MetricCacheKey(language string, queries []string, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00", language)
	for _, q := range queries {
		_, _ = fmt.Fprintf(h, "%s\x00", q)
	}
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// LoadMetrics returns a cached metric map. The boolean is false on a miss,
// which includes entries written by another encoding version.
func LoadMetrics(store contract.CacheStore, key string) (metric.Map, bool) {
	if store == nil {
		return nil, false
	}
	data, version, _, err := store.Get(key)
	if err != nil || version != metricCacheVersion {
		return nil, false
	}
	var m metric.Map
	if err := json.Unmarshal(data, &m); err != nil {
		contract.LogWarn("Discarding unreadable cache entry", err)
		return nil, false
	}
	return m, true
}

// StoreMetrics writes a metric map to the cache.
func StoreMetrics(store contract.CacheStore, key string, m metric.Map) error {
	if store == nil {
		return errors.New("no metric store configured")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	return store.Set(key, data, metricCacheVersion, time.Now().Unix())
}
