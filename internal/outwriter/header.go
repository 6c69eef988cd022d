package outwriter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/huangsam/treemetrics/internal/contract"
)

// LogAnalysisHeader prints a concise, 2-line header before an analysis.
// It writes to w so that structured output on stdout stays parseable.
func LogAnalysisHeader(w io.Writer, cfg *contract.Config, files int) {
	roots := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		name := filepath.Base(p)
		if name == "" || name == "." {
			name = "current"
		}
		roots = append(roots, name)
	}
	language := cfg.Language
	if language == "" {
		language = "auto"
	}

	// Line 1: what is analyzed
	_, _ = fmt.Fprintf(w, "🔎 Paths: %s (Language: %s)\n", strings.Join(roots, ", "), language)

	// Line 2: how results are summed
	_, _ = fmt.Fprintf(w, "🌲 Files: %d (Group by: %s, Workers: %d)\n", files, cfg.GroupBy, cfg.Workers)
}

// LogBulkHeader prints the header of a bulk run over a definition file.
func LogBulkHeader(w io.Writer, path string, groups []string) {
	_, _ = fmt.Fprintf(w, "🔎 Definition: %s\n", filepath.Base(path))
	_, _ = fmt.Fprintf(w, "🌲 Groups: %s\n", strings.Join(groups, ", "))
}
