package contract

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// GroupDefinition describes one group of a bulk run.
type GroupDefinition struct {
	Language        string            `yaml:"language"` // Defaults to the group name
	Paths           []string          `yaml:"paths"`
	Filter          string            `yaml:"filter"`
	Queries         map[string]string `yaml:"queries"`
	StandardQueries *bool             `yaml:"standardQueries"`
}

// Definition maps group names to what each group analyzes.
type Definition map[string]GroupDefinition

// LoadDefinition reads and validates a bulk definition file.
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition file: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition file %s: %w", path, err)
	}
	if len(def) == 0 {
		return nil, fmt.Errorf("definition file %s has no groups", path)
	}
	for name, group := range def {
		if len(group.Paths) == 0 {
			return nil, fmt.Errorf("group %q lists no paths", name)
		}
	}
	return def, nil
}

// Names returns the group names in sorted order.
func (d Definition) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LanguageName resolves the language of a group.
func (g GroupDefinition) LanguageName(group string) string {
	if lang := strings.TrimSpace(g.Language); lang != "" {
		return lang
	}
	return group
}

// UsesStandardQueries reports whether the language catalogue runs for the group.
func (g GroupDefinition) UsesStandardQueries() bool {
	if g.StandardQueries != nil {
		return *g.StandardQueries
	}
	return true
}

// FilterRegexp compiles the include filter of the group, nil when unset.
func (g GroupDefinition) FilterRegexp() (*regexp.Regexp, error) {
	if g.Filter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(g.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", g.Filter, err)
	}
	return re, nil
}

// AdHocQueries returns the group queries sorted by metric name.
func (g GroupDefinition) AdHocQueries() []AdHocQuery {
	names := make([]string, 0, len(g.Queries))
	for name := range g.Queries {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]AdHocQuery, 0, len(names))
	for _, name := range names {
		out = append(out, AdHocQuery{Name: name, Pattern: g.Queries[name]})
	}
	return out
}
