// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteResults prints analysis results using the configured output format.
func (ow *OutWriter) WriteResults(output *schema.AnalysisOutput, cfg *contract.Config, duration time.Duration) error {
	return WriteAnalysisResults(output, cfg, duration)
}

// WriteLanguages prints the supported languages using the configured output format.
func (ow *OutWriter) WriteLanguages(languages []schema.LanguageInfo, cfg *contract.Config) error {
	return PrintLanguages(languages, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for group keys in table
// output based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Metric + Total + Distribution with borders/padding
	baseWidth := 70

	// One percentage column per normalizing metric
	baseWidth += 12 * len(cfg.NormalizeTo)

	// Reserve space for table borders, separators, and padding
	baseWidth += 10

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
