// Package query binds structural patterns to tree-sitter grammars and turns
// their matches over a parsed file into metric maps.
package query

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
)

// Query is a language-independent description of how to compute metrics.
// Bind compiles it for one grammar.
type Query interface {
	Bind(lang *sitter.Language) (Matcher, error)
}

// Matcher is a Query compiled for a single grammar. Match must be safe to
// call from several goroutines at once.
type Matcher interface {
	Name() string
	Metrics() []string
	Match(root *sitter.Node, source []byte) (metric.Map, error)
}

// Capture is one named node of a pattern match.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Match is a single pattern match handed to filters.
type Match struct {
	Pattern  uint16
	Captures []Capture
	Source   []byte
}

// Node returns the first captured node.
func (m *Match) Node() *sitter.Node {
	if len(m.Captures) == 0 {
		return nil
	}
	return m.Captures[0].Node
}

// Capture returns the first node captured under name, or nil.
func (m *Match) Capture(name string) *sitter.Node {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node
		}
	}
	return nil
}

// Text returns the source text of the first captured node.
func (m *Match) Text() string {
	n := m.Node()
	if n == nil {
		return ""
	}
	return n.Content(m.Source)
}

// Verdict is the outcome of a Filter for one match.
type Verdict struct {
	keep  bool
	extra metric.Map
}

var (
	// Keep counts the match once.
	Keep = Verdict{keep: true}
	// Skip ignores the match.
	Skip = Verdict{}
)

// Extra counts the match and merges m under the filter's metric name.
// The match itself is not counted when m carries its own default ("") entry.
func Extra(m metric.Map) Verdict {
	return Verdict{keep: true, extra: m}
}

// KeepIf returns Keep when cond holds and Skip otherwise.
func KeepIf(cond bool) Verdict {
	if cond {
		return Keep
	}
	return Skip
}

// Filter decides what a match contributes.
type Filter func(m *Match) Verdict

// NamedFilter attaches a Filter to a metric suffix. The empty name and
// metric.DefaultName both count under the query name itself.
type NamedFilter struct {
	Name   string
	Filter Filter
}

// Named builds a NamedFilter.
func Named(name string, f Filter) NamedFilter {
	return NamedFilter{Name: name, Filter: f}
}

// Where is a NamedFilter counting under the query name.
func Where(f Filter) NamedFilter {
	return Named("", f)
}

func acceptAll(*Match) Verdict { return Keep }

type scheme struct {
	name    string
	pattern string
	filters []NamedFilter
}

// Scheme counts the matches of a tree-sitter query pattern. Without filters
// every match counts once under name.
func Scheme(name, pattern string, filters ...NamedFilter) Query {
	if len(filters) == 0 {
		filters = []NamedFilter{Where(acceptAll)}
	}
	return &scheme{name: name, pattern: pattern, filters: filters}
}

func (s *scheme) Bind(lang *sitter.Language) (Matcher, error) {
	q, err := sitter.NewQuery([]byte(s.pattern), lang)
	if err != nil {
		return nil, compileError(s.name, s.pattern, err)
	}
	return &schemeMatcher{scheme: s, query: q}, nil
}

// compileError locates a query syntax error inside the pattern.
func compileError(name, pattern string, err error) error {
	var qerr *sitter.QueryError
	if !errors.As(err, &qerr) || int(qerr.Offset) > len(pattern) {
		return fmt.Errorf("compile query %q: %w", name, err)
	}
	before := pattern[:qerr.Offset]
	line := strings.Count(before, "\n") + 1
	column := int(qerr.Offset) - (strings.LastIndex(before, "\n") + 1) + 1
	return fmt.Errorf("compile query %q at line %d, column %d: %w", name, line, column, err)
}

type schemeMatcher struct {
	*scheme
	query *sitter.Query
}

func (m *schemeMatcher) Name() string { return m.name }

func (m *schemeMatcher) Metrics() []string { return []string{m.name} }

func (m *schemeMatcher) Match(root *sitter.Node, source []byte) (metric.Map, error) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(m.query, root)

	out := make(metric.Map)
	for {
		qm, ok := cursor.NextMatch()
		if !ok {
			break
		}
		qm = cursor.FilterPredicates(qm, source)
		if len(qm.Captures) == 0 {
			continue
		}
		match := &Match{Pattern: qm.PatternIndex, Source: source, Captures: make([]Capture, 0, len(qm.Captures))}
		for _, c := range qm.Captures {
			match.Captures = append(match.Captures, Capture{Name: m.query.CaptureNameForId(c.Index), Node: c.Node})
		}

		for _, f := range m.filters {
			name := metric.ConcatName(m.name, f.Name)
			v := f.Filter(match)
			if !v.keep {
				continue
			}
			if v.extra != nil {
				if err := metric.MergeInto(out, v.extra, name); err != nil {
					return nil, fmt.Errorf("query %q: %w", m.name, err)
				}
				if hasDefault(v.extra) {
					continue
				}
			}
			if err := metric.MergeInto(out, metric.Map{name: metric.Count(1)}, ""); err != nil {
				return nil, fmt.Errorf("query %q: %w", m.name, err)
			}
		}
	}
	return out, nil
}

func hasDefault(m metric.Map) bool {
	v, ok := m[""]
	if !ok || v == nil {
		return false
	}
	c, isCount := v.(metric.Count)
	return !isCount || c != 0
}
