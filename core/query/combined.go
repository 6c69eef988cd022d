package query

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
)

type combined struct {
	queries []Query
}

// Combined runs several queries as one and sums their maps.
func Combined(queries ...Query) Query {
	if len(queries) == 1 {
		return queries[0]
	}
	return &combined{queries: queries}
}

func (c *combined) Bind(lang *sitter.Language) (Matcher, error) {
	bound := make([]Matcher, 0, len(c.queries))
	for _, q := range c.queries {
		m, err := q.Bind(lang)
		if err != nil {
			return nil, err
		}
		bound = append(bound, m)
	}
	return &combinedMatcher{matchers: bound}, nil
}

type combinedMatcher struct {
	matchers []Matcher
}

func (c *combinedMatcher) Name() string {
	names := make([]string, 0, len(c.matchers))
	for _, m := range c.matchers {
		names = append(names, m.Name())
	}
	return strings.Join(names, "+")
}

func (c *combinedMatcher) Metrics() []string {
	var out []string
	for _, m := range c.matchers {
		out = append(out, m.Metrics()...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *combinedMatcher) Match(root *sitter.Node, source []byte) (metric.Map, error) {
	out := make(metric.Map)
	for _, m := range c.matchers {
		part, err := m.Match(root, source)
		if err != nil {
			return nil, err
		}
		if err := metric.MergeInto(out, part, ""); err != nil {
			return nil, fmt.Errorf("query %q: %w", m.Name(), err)
		}
	}
	return out, nil
}

// StaticFunc computes one metric value from a whole parsed file.
type StaticFunc func(root *sitter.Node, source []byte) (metric.Value, error)

type static struct {
	name string
	fn   StaticFunc
}

// Static wraps a function over the whole tree as a single-metric query.
// A nil value leaves the metric absent.
func Static(name string, fn StaticFunc) Query {
	return &static{name: name, fn: fn}
}

func (s *static) Bind(*sitter.Language) (Matcher, error) { return s, nil }

func (s *static) Name() string { return s.name }

func (s *static) Metrics() []string { return []string{s.name} }

func (s *static) Match(root *sitter.Node, source []byte) (metric.Map, error) {
	v, err := s.fn(root, source)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", s.name, err)
	}
	if v == nil {
		return metric.Map{}, nil
	}
	return metric.Map{s.name: v}, nil
}
