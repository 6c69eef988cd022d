// Package langs registers the tree-sitter grammars treemetrics can analyze
// together with the standard query catalogue of each language.
package langs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/huangsam/treemetrics/core/query"
)

// Standard is one named entry of a language's query catalogue.
type Standard struct {
	Name  string
	Query query.Query
}

// Language describes one analyzable language.
type Language struct {
	Name       string   // Canonical lowercase name, e.g. "python"
	Aliases    []string // Other accepted names, including the linguist name
	Extensions []string
	Grammar    func() *sitter.Language
	Catalogue  func() []Standard
}

// Queries returns the catalogue queries whose name matches filter, in
// catalogue order. A nil filter selects everything.
func (l *Language) Queries(filter *regexp.Regexp) []query.Query {
	var out []query.Query
	for _, s := range l.Catalogue() {
		if filter == nil || filter.MatchString(s.Name) {
			out = append(out, s.Query)
		}
	}
	return out
}

// MetricNames returns the names of the catalogue entries.
func (l *Language) MetricNames() []string {
	cat := l.Catalogue()
	names := make([]string, 0, len(cat))
	for _, s := range cat {
		names = append(names, s.Name)
	}
	return names
}

// Registry indexes languages by name, alias and file extension.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Language
	extIndex map[string]*Language
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]*Language),
		extIndex: make(map[string]*Language),
		order:    make([]string, 0),
	}
}

// Register adds a language, indexing it by name, aliases and extensions.
func (r *Registry) Register(l *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[l.Name]; !exists {
		r.order = append(r.order, l.Name)
	}
	r.byName[l.Name] = l
	for _, a := range l.Aliases {
		r.byName[strings.ToLower(a)] = l
	}
	for _, ext := range l.Extensions {
		r.extIndex[ext] = l
	}
}

// Get looks a language up by name or alias, ignoring case.
func (r *Registry) Get(name string) (*Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if l, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("unsupported language %q (supported: %s)", name, strings.Join(r.order, ", "))
}

// ByExtension returns the language registered for the extension of path.
func (r *Registry) ByExtension(path string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.extIndex[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// All returns every language in registration order.
func (r *Registry) All() []*Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Language, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

// Names returns the canonical language names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Default holds every built-in language.
var Default = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Python())
	r.Register(JavaScript())
	r.Register(TypeScript())
	r.Register(TSX())
	r.Register(CSharp())
	r.Register(Go())
	r.Register(Java())
	return r
}
