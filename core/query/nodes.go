package query

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
)

// Walk visits root and all of its descendants in document order.
func Walk(root *sitter.Node, visit func(n *sitter.Node)) {
	if root == nil {
		return
	}
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	for {
		visit(cursor.CurrentNode())
		if cursor.GoToFirstChild() {
			continue
		}
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

type nodeType struct {
	name  string
	types []string
}

// NodeType counts the nodes of the given types under one metric name.
func NodeType(name string, types ...string) Query {
	return &nodeType{name: name, types: types}
}

func (q *nodeType) Bind(*sitter.Language) (Matcher, error) { return q, nil }

func (q *nodeType) Name() string { return q.name }

func (q *nodeType) Metrics() []string { return []string{q.name} }

func (q *nodeType) Match(root *sitter.Node, _ []byte) (metric.Map, error) {
	var n int64
	Walk(root, func(node *sitter.Node) {
		if slices.Contains(q.types, node.Type()) {
			n++
		}
	})
	return metric.Map{q.name: metric.Count(n)}, nil
}

type eachNodeType struct{}

// EachNodeType counts every node type in the tree, one metric per type.
// It is meant for exploring a grammar.
func EachNodeType() Query { return eachNodeType{} }

func (q eachNodeType) Bind(*sitter.Language) (Matcher, error) { return q, nil }

func (eachNodeType) Name() string { return "node-types" }

func (eachNodeType) Metrics() []string { return nil }

func (eachNodeType) Match(root *sitter.Node, _ []byte) (metric.Map, error) {
	out := make(metric.Map)
	Walk(root, func(node *sitter.Node) {
		c, _ := out[node.Type()].(metric.Count)
		out[node.Type()] = c + 1
	})
	return out, nil
}
