// Package core has core logic for analysis, aggregation and export.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/treemetrics/core/agg"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/iocache"
	"github.com/huangsam/treemetrics/internal/langs"
	"github.com/huangsam/treemetrics/internal/outwriter"
	"github.com/huangsam/treemetrics/internal/runstats"
	"github.com/huangsam/treemetrics/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// ExecuteAnalyze analyzes every configured path and prints the results.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	stats := runstats.New()
	output, err := analyzePaths(ctx, cfg, iocache.Manager, stats)
	if err != nil {
		return err
	}
	return finishRun(output, cfg, stats, time.Since(start))
}

// ExecuteBulk analyzes every group of the definition file named by the
// first path and prints the combined results.
func ExecuteBulk(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	if len(cfg.Paths) != 1 {
		return errors.New("bulk needs exactly one definition file")
	}
	def, err := contract.LoadDefinition(cfg.Paths[0])
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogBulkHeader(os.Stderr, cfg.Paths[0], def.Names())
	}

	stats := runstats.New()
	output, err := AnalyzeBulk(ctx, cfg, def, BatchOptions{Manager: iocache.Manager, Stats: stats})
	if err != nil {
		return err
	}
	return finishRun(output, cfg, stats, time.Since(start))
}

// ExecuteLanguages prints every supported language with its catalogue.
func ExecuteLanguages(_ context.Context, cfg *contract.Config) error {
	return outwriter.NewOutWriter().WriteLanguages(LanguageInfos(), cfg)
}

// GetAnalysisResults analyzes the configured paths without printing them.
func GetAnalysisResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.AnalysisOutput, error) {
	return analyzePaths(ctx, cfg, mgr, nil)
}

// LanguageInfos describes every registered language in registration order.
func LanguageInfos() []schema.LanguageInfo {
	all := langs.Default.All()
	out := make([]schema.LanguageInfo, 0, len(all))
	for _, l := range all {
		out = append(out, schema.LanguageInfo{
			Name:       l.Name,
			Aliases:    l.Aliases,
			Extensions: l.Extensions,
			Metrics:    l.MetricNames(),
		})
	}
	return out
}

// analyzePaths collects the files under cfg.Paths and analyzes them as one batch.
func analyzePaths(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, stats *runstats.Recorder) (*schema.AnalysisOutput, error) {
	opts, err := sourceOptions(cfg)
	if err != nil {
		return nil, err
	}
	files, err := collectSources(ctx, cfg.Paths, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no analyzable files found in %v", cfg.Paths)
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(os.Stderr, cfg, len(files))
	}
	return AnalyzeSources(ctx, cfg, files, BatchOptions{
		Group:   cfg.Group,
		Plan:    planFromConfig(cfg),
		Manager: mgr,
		Stats:   stats,
	})
}

// finishRun writes the results and the optional stats file of a run.
func finishRun(output *schema.AnalysisOutput, cfg *contract.Config, stats *runstats.Recorder, duration time.Duration) error {
	total, err := agg.GrandTotal(output.Results)
	if err != nil {
		return err
	}
	stats.Outliers(total.Skipped)

	if err := outwriter.NewOutWriter().WriteResults(output, cfg, duration); err != nil {
		return err
	}
	if cfg.StatsFile != "" {
		if err := stats.WriteToTextfile(cfg.StatsFile); err != nil {
			return fmt.Errorf("write stats file: %w", err)
		}
	}
	return nil
}
