package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/langs"
	"github.com/huangsam/treemetrics/internal/source"
	"github.com/huangsam/treemetrics/schema"
)

// AnalyzeBulk runs every group of a definition, in group name order.
//
// A group that cannot be set up or analyzed is logged with its name,
// reported as a group-failed diagnostic and skipped. Only cancellation stops
// the remaining groups.
func AnalyzeBulk(ctx context.Context, cfg *contract.Config, def contract.Definition, opts BatchOptions) (*schema.AnalysisOutput, error) {
	total := &schema.AnalysisOutput{}
	for _, name := range def.Names() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		out, err := analyzeGroup(ctx, cfg, name, def[name], opts)
		if out != nil {
			mergeOutput(total, out)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return total, err
			}
			contract.LogWarn(fmt.Sprintf("Skipping group %s", name), err)
			total.Diagnostics = append(total.Diagnostics, schema.Diagnostic{
				Kind:    schema.GroupFailed,
				Group:   name,
				Message: err.Error(),
			})
			opts.Stats.Diagnostics(total.Diagnostics[len(total.Diagnostics)-1:])
		}
	}
	return total, nil
}

// analyzeGroup collects and analyzes the files of one group.
func analyzeGroup(ctx context.Context, cfg *contract.Config, name string, group contract.GroupDefinition, opts BatchOptions) (*schema.AnalysisOutput, error) {
	lang, err := langs.Default.Get(group.LanguageName(name))
	if err != nil {
		return nil, err
	}
	filter, err := group.FilterRegexp()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = cfg.Filter
	}

	files, err := collectSources(ctx, group.Paths, source.Options{
		Language:   lang,
		Include:    filter,
		Excludes:   cfg.Excludes,
		KeepVendor: cfg.KeepVendor,
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", lang.Name, group.Paths)
	}

	groupOpts := opts
	groupOpts.Group = name
	groupOpts.Plan = planFromConfig(cfg)
	groupOpts.Plan.Standard = group.UsesStandardQueries()
	groupOpts.Plan.AdHoc = append(slices.Clone(groupOpts.Plan.AdHoc), group.AdHocQueries()...)
	if !groupOpts.Plan.Standard && len(groupOpts.Plan.AdHoc) == 0 && len(groupOpts.Plan.NodeTypes) == 0 && !groupOpts.Plan.AllNodeTypes {
		return nil, errors.New("group selects no queries")
	}
	return AnalyzeSources(ctx, cfg, files, groupOpts)
}

// mergeOutput appends the output of one batch to another.
func mergeOutput(dst, src *schema.AnalysisOutput) {
	dst.Results = append(dst.Results, src.Results...)
	dst.Diagnostics = append(dst.Diagnostics, src.Diagnostics...)
	dst.Cached += src.Cached
	dst.Failed += src.Failed
}
