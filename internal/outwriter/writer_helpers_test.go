package outwriter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatFormatter(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		expected  string
	}{
		{1, 33.3333, "33.3"},
		{0, 66.6666, "67"},
		{3, 4.0, "4.000"},
		{2, -42.567, "-42.57"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, floatFormatter(tt.precision)(tt.value))
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeJSON(&buf, map[string]int64{"statements_total": 3}))
	assert.Equal(t, "{\n  \"statements_total\": 3\n}\n", buf.String())

	err := encodeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVRecords(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVRecords(&buf, []string{"metric", "message"}, func(emit func([]string) error) error {
		return emit([]string{"todo_comments", "fix this, later"})
	})
	require.NoError(t, err)
	assert.Equal(t, "metric,message\ntodo_comments,\"fix this, later\"\n", buf.String())

	buf.Reset()
	err = writeCSVRecords(&buf, []string{"metric"}, func(func([]string) error) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
	assert.Empty(t, buf.String(), "nothing is flushed after a failure")
}

func TestWriteOutput(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeOutput("", func(io.Writer) error {
			called = true
			return nil
		}, "test")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		err := writeOutput(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "statements 3\n")
			return err
		}, "test")
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "statements 3\n", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		err := writeOutput(path, func(io.Writer) error { return assert.AnError }, "test")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeOutput("/nonexistent/path/report.txt", func(io.Writer) error { return nil }, "test")
		assert.Error(t, err)
	})
}
