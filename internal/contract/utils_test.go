package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	cases := map[float64]string{
		0:                     CleanValue,
		-1:                    CleanValue,
		0.001:                 MinorValue,
		OutlierErrorRatio / 4: NoisyValue,
		0.0199:                NoisyValue,
		OutlierErrorRatio:     UnreliableValue,
		1.5:                   UnreliableValue,
	}
	for ratio, want := range cases {
		assert.Equal(t, want, GetPlainLabel(ratio), "ratio %v", ratio)
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, ratio := range []float64{0, 0.001, 0.01, 0.5} {
		assert.Contains(t, GetColorLabel(ratio), GetPlainLabel(ratio))
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		// Verify file was created
		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		path     string
		excludes []string
		want     bool
	}{
		{"src/main.go", nil, false},
		{"src/main.go", []string{"  ", ""}, false},
		{"vendor/github.com/lib/file.go", []string{"vendor/"}, true},
		{"web/node_modules/react/index.js", []string{"node_modules/"}, true},
		{"dist/bundle.min.js", []string{".min.js"}, true},
		{"src/file.min.js", []string{"*.min.js"}, true},
		{"test/unit_test.go", []string{"*_test.go"}, true},
		{"src/generated/code.go", []string{" generated "}, true},
		{"src/core/engine.go", []string{"vendor/", "node_modules/", ".min.js"}, false},
		{"src/core/engine.go", []string{"[bad"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.path, tt.excludes), "excludes %v", tt.excludes)
		})
	}
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cachePath := GetCacheDBFilePath()
	assert.Contains(t, cachePath, ".treemetrics_cache.db")
	assert.True(t, strings.HasPrefix(cachePath, homeDir), "path %s should start with home dir %s", cachePath, homeDir)

	analysisPath := GetAnalysisDBFilePath()
	assert.Contains(t, analysisPath, ".treemetrics_analysis.db")
	assert.NotEqual(t, cachePath, analysisPath)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "src/main.py", TruncatePath("src/main.py", 20))
	assert.Equal(t, "...main.py", TruncatePath("very/deep/src/main.py", 10))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("auto")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Empty(t, SplitList(""))
}

func TestParseQuantiles(t *testing.T) {
	tests := []struct {
		input       string
		expected    []float64
		expectError bool
	}{
		{input: "0.2,0.5,0.8", expected: []float64{0.2, 0.5, 0.8}},
		{input: "p20, P50", expected: []float64{0.2, 0.5}},
		{input: "0,1", expected: []float64{0, 1}},
		{input: "", expected: []float64{}},
		{input: "1.5", expectError: true},
		{input: "p-10", expectError: true},
		{input: "median", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuantiles(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, got, 1e-9)
		})
	}
}
