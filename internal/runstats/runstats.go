// Package runstats counts what happened during an analysis run with
// prometheus collectors and exports them in the textfile format.
package runstats

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/huangsam/treemetrics/schema"
)

// File outcomes used as the status label.
const (
	StatusAnalyzed = "analyzed"
	StatusCached   = "cached"
	StatusFailed   = "failed"
)

// Recorder holds the collectors of one run. A nil Recorder discards everything.
type Recorder struct {
	registry    *prometheus.Registry
	files       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	skipped     prometheus.Counter
	parse       prometheus.Histogram
	runs        prometheus.Counter
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treemetrics",
			Name:      "files_total",
			Help:      "Files processed, by language and outcome.",
		}, []string{"language", "status"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treemetrics",
			Name:      "diagnostics_total",
			Help:      "Non-fatal findings recorded while analyzing files.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treemetrics",
			Name:      "outlier_files_total",
			Help:      "Files left out of the grand total as parse outliers.",
		}),
		parse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treemetrics",
			Name:      "file_analysis_seconds",
			Help:      "Time spent parsing and querying one file.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treemetrics",
			Name:      "runs_total",
			Help:      "Analysis batches completed.",
		}),
	}
	r.registry.MustRegister(r.files, r.diagnostics, r.skipped, r.parse, r.runs)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileDone records one analyzed or cached file.
func (r *Recorder) FileDone(language string, cached bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	if cached {
		r.files.WithLabelValues(language, StatusCached).Inc()
		return
	}
	r.files.WithLabelValues(language, StatusAnalyzed).Inc()
	r.parse.Observe(elapsed.Seconds())
}

// FileFailed records a file whose analysis failed.
func (r *Recorder) FileFailed(language string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(language, StatusFailed).Inc()
}

// Diagnostics records findings by kind.
func (r *Recorder) Diagnostics(diags []schema.Diagnostic) {
	if r == nil {
		return
	}
	for _, d := range diags {
		r.diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
}

// Outliers records files skipped by the outlier filter.
func (r *Recorder) Outliers(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skipped.Add(float64(n))
}

// RunDone records a finished batch.
func (r *Recorder) RunDone() {
	if r == nil {
		return
	}
	r.runs.Inc()
}

// WriteToTextfile writes every collector in the node exporter textfile format.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write stats to %s: %w", path, err)
	}
	return nil
}
