package query

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/metric"
)

type deferred struct {
	build func(lang *sitter.Language) Query
}

// ForLanguage defers building a query until the grammar is known.
func ForLanguage(build func(lang *sitter.Language) Query) Query {
	return &deferred{build: build}
}

func (d *deferred) Bind(lang *sitter.Language) (Matcher, error) {
	return d.build(lang).Bind(lang)
}

// KnownTypes returns the named node types of types that lang defines,
// preserving their order.
func KnownTypes(lang *sitter.Language, types ...string) []string {
	defined := make(map[string]struct{}, lang.SymbolCount())
	for i := uint32(0); i < lang.SymbolCount(); i++ {
		s := sitter.Symbol(i)
		if lang.SymbolType(s) == sitter.SymbolTypeRegular {
			defined[lang.SymbolName(s)] = struct{}{}
		}
	}
	var out []string
	for _, t := range types {
		if _, ok := defined[t]; ok && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Alternation renders types as a tree-sitter alternation capturing @default.
func Alternation(types ...string) string {
	var b strings.Builder
	b.WriteString("[")
	for i, t := range types {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + t + ")")
	}
	b.WriteString("] @default")
	return b.String()
}

// SchemeTypes is a Scheme over whichever of types the grammar defines. When
// the grammar defines none of them the query yields nothing.
func SchemeTypes(name string, types []string, filters ...NamedFilter) Query {
	return ForLanguage(func(lang *sitter.Language) Query {
		known := KnownTypes(lang, types...)
		if len(known) == 0 {
			return Static(name, func(*sitter.Node, []byte) (metric.Value, error) { return nil, nil })
		}
		return Scheme(name, Alternation(known...), filters...)
	})
}
