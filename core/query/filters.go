package query

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
)

// trivialLiterals are literals too common to be worth counting.
var trivialLiterals = []string{"true", "false", "null", "1", "0", ".0", "0.0", "0x0", "''", `""`, "``", ""}

// FilterLiterals skips boolean, null, zero, one and empty-string literals.
func FilterLiterals(m *Match) Verdict {
	return KeepIf(!slices.Contains(trivialLiterals, strings.ToLower(m.Text())))
}

// SameNode reports whether a and b denote the same syntax node.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// ParentTypes reports whether the ancestors of n, nearest first, have exactly
// the given types.
func ParentTypes(n *sitter.Node, types ...string) bool {
	for _, t := range types {
		if n == nil {
			return false
		}
		n = n.Parent()
		if n == nil || n.Type() != t {
			return false
		}
	}
	return true
}

// HasAncestor reports whether any ancestor of n has one of the given types.
func HasAncestor(n *sitter.Node, types ...string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if slices.Contains(types, p.Type()) {
			return true
		}
	}
	return false
}

// IsCallee reports whether n is the function field of its parent call node.
func IsCallee(n *sitter.Node, callTypes ...string) bool {
	p := n.Parent()
	if p == nil || !slices.Contains(callTypes, p.Type()) {
		return false
	}
	return SameNode(p.ChildByFieldName("function"), n)
}

// InCallTarget reports whether n overlaps the function field of its nearest
// enclosing call, as in a().b().
func InCallTarget(n *sitter.Node, callTypes ...string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if !slices.Contains(callTypes, p.Type()) {
			continue
		}
		target := p.ChildByFieldName("function")
		return target != nil && target.EndByte() > n.StartByte() && target.StartByte() < n.EndByte()
	}
	return false
}

// Lines counts the lines of the source.
func Lines() Query {
	return Static("lines", func(_ *sitter.Node, source []byte) (metric.Value, error) {
		return metric.Count(LineCount(source)), nil
	})
}

// LanguageLabel attaches the language name to every file.
func LanguageLabel(name string) Query {
	return Static("language", func(*sitter.Node, []byte) (metric.Value, error) {
		return metric.Label(name), nil
	})
}

// IdentifierLengths is the distribution of identifier lengths in runes.
func IdentifierLengths(types ...string) Query {
	if len(types) == 0 {
		types = []string{"identifier"}
	}
	return Static("identifier_len", func(root *sitter.Node, source []byte) (metric.Value, error) {
		h := metric.NewHistogram()
		Walk(root, func(n *sitter.Node) {
			if slices.Contains(types, n.Type()) {
				h.Observe(int64(utf8.RuneCountInString(n.Content(source))))
			}
		})
		if h.Len() == 0 {
			return nil, nil
		}
		return h, nil
	})
}

var todoPattern = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)

// TodoComments collects comments carrying a TODO-style marker.
func TodoComments(types ...string) Query {
	if len(types) == 0 {
		types = []string{"comment"}
	}
	return Static("todo_comments", func(root *sitter.Node, source []byte) (metric.Value, error) {
		var out metric.Messages
		Walk(root, func(n *sitter.Node) {
			if !slices.Contains(types, n.Type()) {
				return
			}
			text := strings.TrimSpace(n.Content(source))
			if todoPattern.MatchString(text) {
				out = append(out, text)
			}
		})
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	})
}
