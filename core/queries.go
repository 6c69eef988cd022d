package core

import (
	"regexp"

	"github.com/huangsam/treemetrics/core/query"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/langs"
)

// QueryPlan selects the queries run over every file of a batch.
type QueryPlan struct {
	Standard     bool           // Run the language catalogue
	Metrics      *regexp.Regexp // Catalogue entries to keep; nil keeps all
	NodeTypes    []string       // Node types counted under their own name
	AllNodeTypes bool           // Count every node type
	AdHoc        []contract.AdHocQuery
}

// planFromConfig returns the query plan described by the configuration.
func planFromConfig(cfg *contract.Config) QueryPlan {
	return QueryPlan{
		Standard:     cfg.StandardQueries,
		Metrics:      cfg.Metrics,
		NodeTypes:    cfg.NodeTypes,
		AllNodeTypes: cfg.AllNodeTypes,
		AdHoc:        cfg.Queries,
	}
}

// Build returns the queries of the plan for one language, catalogue first.
func (p QueryPlan) Build(lang *langs.Language) []query.Query {
	var out []query.Query
	if p.Standard {
		out = append(out, lang.Queries(p.Metrics)...)
	}
	for _, q := range p.AdHoc {
		out = append(out, query.Scheme(q.Name, q.Pattern))
	}
	for _, t := range p.NodeTypes {
		out = append(out, query.NodeType(t, t))
	}
	if p.AllNodeTypes {
		out = append(out, query.EachNodeType())
	}
	return out
}

// Fingerprint identifies the plan for one language in metric cache keys.
func (p QueryPlan) Fingerprint(lang *langs.Language) []string {
	var out []string
	if p.Standard {
		for _, name := range lang.MetricNames() {
			if p.Metrics == nil || p.Metrics.MatchString(name) {
				out = append(out, "std:"+name)
			}
		}
	}
	for _, q := range p.AdHoc {
		out = append(out, "q:"+q.Name+"="+q.Pattern)
	}
	for _, t := range p.NodeTypes {
		out = append(out, "node:"+t)
	}
	if p.AllNodeTypes {
		out = append(out, "node:*")
	}
	return out
}
