package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinition(t *testing.T) {
	path := writeDefinition(t, `
python:
  paths: [services/api]
  filter: '\.py$'
frontend:
  language: typescript
  paths: [web/src, web/lib]
  standardQueries: false
  queries:
    jsx_elements: (jsx_element) @default
    awaits: (await_expression) @default
`)
	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend", "python"}, def.Names())

	py := def["python"]
	assert.Equal(t, "python", py.LanguageName("python"))
	assert.True(t, py.UsesStandardQueries())
	re, err := py.FilterRegexp()
	require.NoError(t, err)
	assert.True(t, re.MatchString("app/main.py"))

	fe := def["frontend"]
	assert.Equal(t, "typescript", fe.LanguageName("frontend"))
	assert.False(t, fe.UsesStandardQueries())
	assert.Equal(t, []AdHocQuery{
		{Name: "awaits", Pattern: "(await_expression) @default"},
		{Name: "jsx_elements", Pattern: "(jsx_element) @default"},
	}, fe.AdHocQueries())
	re, err = fe.FilterRegexp()
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestLoadDefinitionErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not a mapping", "- python\n"},
		{"group without paths", "python:\n  filter: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDefinition(writeDefinition(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := GroupDefinition{Filter: "("}
	_, err = bad.FilterRegexp()
	assert.Error(t, err)
}
