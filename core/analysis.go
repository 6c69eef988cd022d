package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/iocache"
	"github.com/huangsam/treemetrics/internal/langs"
	"github.com/huangsam/treemetrics/internal/runstats"
	"github.com/huangsam/treemetrics/internal/source"
	"github.com/huangsam/treemetrics/schema"
)

// BatchOptions carries what a batch needs besides the configuration.
type BatchOptions struct {
	Group   string                // Group label of every result
	Plan    QueryPlan             // Queries run over every file
	Manager contract.CacheManager // Metric cache and run tracking; nil disables both
	Stats   *runstats.Recorder    // Optional run counters
}

// fileOutcome is what one worker reports for one file.
type fileOutcome struct {
	file   source.File
	result schema.FileResult
	diags  []schema.Diagnostic
	cached bool
	err    error
}

// AnalyzeSources runs the query plan over files with a pool of cfg.Workers
// goroutines, one analyzer per language.
//
// A file that fails is logged, reported as a diagnostic and left out. When
// ctx is canceled dispatch stops and the results collected so far are
// returned along with the context error.
func AnalyzeSources(ctx context.Context, cfg *contract.Config, files []source.File, opts BatchOptions) (*schema.AnalysisOutput, error) {
	analyzers, err := buildAnalyzers(files, opts)
	if err != nil {
		return nil, err
	}
	ctx = contextWithCacheManager(ctx, opts.Manager)

	// --- 0. Begin Analysis Tracking (if configured) ---
	var analysisStore contract.AnalysisStore
	if opts.Manager != nil {
		analysisStore = opts.Manager.GetAnalysisStore()
	}
	var analysisID int64
	if analysisStore != nil {
		configParams := map[string]any{
			"paths":   cfg.Paths,
			"group":   opts.Group,
			"workers": cfg.Workers,
			"files":   len(files),
		}
		if cfg.Language != "" {
			configParams["language"] = cfg.Language
		}
		analysisID, err = analysisStore.BeginAnalysis(time.Now(), configParams)
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 1. Core Analysis ---
	outcomes := runWorkers(ctx, cfg.Workers, files, func(f source.File) fileOutcome {
		return analyzeSource(ctx, analyzers[f.Language.Name], f, opts)
	})

	// --- 2. Collect ---
	output := &schema.AnalysisOutput{Results: make([]schema.FileResult, 0, len(outcomes))}
	for _, o := range outcomes {
		if o.err != nil {
			if ctx.Err() != nil {
				// failures after cancellation are not the file's fault
				continue
			}
			output.Failed++
			opts.Stats.FileFailed(o.file.Language.Name)
			contract.LogWarn(fmt.Sprintf("Failed to analyze %s", o.file.Path), o.err)
			output.Diagnostics = append(output.Diagnostics, schema.Diagnostic{
				Kind:    schema.AnalysisFailed,
				Group:   opts.Group,
				File:    o.file.Path,
				Message: o.err.Error(),
			})
			continue
		}
		if o.cached {
			output.Cached++
		}
		output.Results = append(output.Results, o.result)
		output.Diagnostics = append(output.Diagnostics, o.diags...)
	}
	slices.SortFunc(output.Results, func(a, b schema.FileResult) int {
		return cmp.Or(cmp.Compare(a.Dir, b.Dir), cmp.Compare(a.File, b.File))
	})
	for _, d := range output.Diagnostics {
		if d.Kind != schema.AnalysisFailed {
			contract.LogDiagnostic(d)
		}
	}
	opts.Stats.Diagnostics(output.Diagnostics)

	// --- 3. End Analysis Tracking ---
	if analysisStore != nil && analysisID > 0 {
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(output.Results), len(output.Diagnostics)); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}
	opts.Stats.RunDone()

	return output, ctx.Err()
}

// buildAnalyzers binds the plan once for every language present in files.
func buildAnalyzers(files []source.File, opts BatchOptions) (map[string]*Analyzer, error) {
	analyzers := make(map[string]*Analyzer)
	for _, f := range files {
		if f.Language == nil {
			return nil, fmt.Errorf("no language for %s", f.Path)
		}
		if _, ok := analyzers[f.Language.Name]; ok {
			continue
		}
		a, err := NewAnalyzer(f.Language, opts.Plan.Build(f.Language), WithGroup(opts.Group))
		if err != nil {
			return nil, err
		}
		analyzers[f.Language.Name] = a
	}
	return analyzers, nil
}

// runWorkers processes all files in parallel using a worker pool.
// It spawns the given number of goroutines and stops dispatching once ctx is done.
func runWorkers(ctx context.Context, workers int, files []source.File, work func(source.File) fileOutcome) []fileOutcome {
	fileCh := make(chan source.File, len(files))
	outcomeCh := make(chan fileOutcome, len(files))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(workers, 1) {
		wg.Go(func() {
			for f := range fileCh {
				if ctx.Err() != nil {
					continue
				}
				outcomeCh <- work(f)
			}
		})
	}

	// Send files to worker channel
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		fileCh <- f
	}
	close(fileCh)

	// Wait for all workers to finish processing
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]fileOutcome, 0, len(files))
	for o := range outcomeCh {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// analyzeSource computes the metrics of one file, going through the metric
// cache when one is configured.
func analyzeSource(ctx context.Context, a *Analyzer, f source.File, opts BatchOptions) fileOutcome {
	content, err := f.Read()
	if err != nil {
		return fileOutcome{file: f, err: err}
	}

	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil {
		store = mgr.GetMetricStore()
	}
	var key string
	if store != nil {
		key = iocache.MetricCacheKey(a.Language().Name, opts.Plan.Fingerprint(a.Language()), content)
		if m, ok := iocache.LoadMetrics(store, key); ok {
			result := schema.FileResult{Dir: f.Dir, Group: a.Group(), Language: a.Language().Name, File: f.Path, Metrics: m}
			a.Record(result)
			opts.Stats.FileDone(result.Language, true, 0)
			recordFileAnalysis(ctx, result)
			return fileOutcome{file: f, result: result, cached: true}
		}
	}

	start := time.Now()
	result, diags, err := a.AnalyzeFile(ctx, f.Dir, f.Path, content)
	if err != nil {
		return fileOutcome{file: f, err: err}
	}
	opts.Stats.FileDone(result.Language, false, time.Since(start))

	if store != nil {
		if err := iocache.StoreMetrics(store, key, result.Metrics); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to cache metrics of %s", f.Path), err)
		}
	}
	recordFileAnalysis(ctx, result)
	return fileOutcome{file: f, result: result, diags: diags}
}

// recordFileAnalysis stores one file result in the tracked run, if any.
func recordFileAnalysis(ctx context.Context, result schema.FileResult) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || analysisID <= 0 {
		return
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}
	if err := analysisStore.RecordFileResult(analysisID, result); err != nil {
		logTrackingError("RecordFileResult", result.File, err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation, path string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, path), err)
}

// collectSources walks every configured path.
func collectSources(ctx context.Context, paths []string, opts source.Options) ([]source.File, error) {
	var files []source.File
	for _, p := range paths {
		found, err := source.Walk(ctx, p, opts)
		files = append(files, found...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

// sourceOptions translates the configuration into walk options.
func sourceOptions(cfg *contract.Config) (source.Options, error) {
	opts := source.Options{
		Include:    cfg.Filter,
		Excludes:   cfg.Excludes,
		KeepVendor: cfg.KeepVendor,
	}
	if cfg.Language != "" {
		lang, err := langs.Default.Get(cfg.Language)
		if err != nil {
			return source.Options{}, err
		}
		opts.Language = lang
	}
	return opts, nil
}
