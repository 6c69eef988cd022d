package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
	"github.com/huangsam/treemetrics/core/query"
	"github.com/huangsam/treemetrics/internal/langs"
	"github.com/huangsam/treemetrics/schema"
)

// Analyzer runs a fixed set of queries over the files of one language and
// keeps every result it produced. It is safe for concurrent use.
type Analyzer struct {
	language *langs.Language
	grammar  *sitter.Language
	matchers []query.Matcher
	group    string

	mu      sync.Mutex
	results []schema.FileResult
	diags   []schema.Diagnostic
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithGroup sets the group label of every result.
func WithGroup(group string) AnalyzerOption {
	return func(a *Analyzer) { a.group = group }
}

// NewAnalyzer binds every query to the language grammar once.
func NewAnalyzer(lang *langs.Language, queries []query.Query, opts ...AnalyzerOption) (*Analyzer, error) {
	if lang == nil {
		return nil, errors.New("analyzer needs a language")
	}
	a := &Analyzer{language: lang, grammar: lang.Grammar()}
	for _, opt := range opts {
		opt(a)
	}
	for _, q := range queries {
		m, err := q.Bind(a.grammar)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", lang.Name, err)
		}
		a.matchers = append(a.matchers, m)
	}
	return a, nil
}

// Language returns the language the analyzer was built for.
func (a *Analyzer) Language() *langs.Language { return a.language }

// Group returns the group label given to results.
func (a *Analyzer) Group() string { return a.group }

// MetricNames returns the metrics the bound queries declare, in query order.
func (a *Analyzer) MetricNames() []string {
	var out []string
	for _, m := range a.matchers {
		out = append(out, m.Metrics()...)
	}
	return out
}

// Compute parses source and runs every query without recording the result.
func (a *Analyzer) Compute(ctx context.Context, dir, path string, source []byte) (schema.FileResult, []schema.Diagnostic, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(a.grammar)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return schema.FileResult{}, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()
	root := tree.RootNode()

	results := make([]query.Result, 0, len(a.matchers))
	for _, m := range a.matchers {
		if err := ctx.Err(); err != nil {
			return schema.FileResult{}, nil, err
		}
		metrics, err := m.Match(root, source)
		if err != nil {
			return schema.FileResult{}, nil, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, query.Result{Query: m.Name(), Metrics: metrics})
	}

	metrics, diags := query.ComposeFile(path, results, query.LineCount(source))
	for i := range diags {
		diags[i].Group = a.group
	}
	return schema.FileResult{
		Dir:      dir,
		Group:    a.group,
		Language: a.language.Name,
		File:     path,
		Metrics:  metrics,
	}, diags, nil
}

// AnalyzeFile computes the metrics of one file and records them.
func (a *Analyzer) AnalyzeFile(ctx context.Context, dir, path string, source []byte) (schema.FileResult, []schema.Diagnostic, error) {
	result, diags, err := a.Compute(ctx, dir, path, source)
	if err != nil {
		return schema.FileResult{}, nil, err
	}
	a.Record(result, diags...)
	return result, diags, nil
}

// AnalyzeFileAsync reads the whole of r and analyzes it like AnalyzeFile.
func (a *Analyzer) AnalyzeFileAsync(ctx context.Context, dir, path string, r io.Reader) (schema.FileResult, []schema.Diagnostic, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return schema.FileResult{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return a.AnalyzeFile(ctx, dir, path, source)
}

// Record appends a result computed elsewhere, such as a cache hit.
func (a *Analyzer) Record(result schema.FileResult, diags ...schema.Diagnostic) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	a.diags = append(a.diags, diags...)
}

// Results returns a snapshot of the recorded results.
func (a *Analyzer) Results() []schema.FileResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.results)
}

// Diagnostics returns a snapshot of the recorded diagnostics.
func (a *Analyzer) Diagnostics() []schema.Diagnostic {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.diags)
}

// TotalResults sums every recorded result. Outliers are not filtered.
func (a *Analyzer) TotalResults() (metric.Map, error) {
	results := a.Results()
	maps := make([]metric.Map, len(results))
	for i, r := range results {
		maps[i] = r.Metrics
	}
	return metric.Sum(maps...)
}
