package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/treemetrics/core"
	"github.com/huangsam/treemetrics/internal/contract"
)

// analyzeCmd computes metrics for every file under the given paths.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Compute structural metrics for source files.",
	Long: `Parse every supported source file under the given paths and count syntax patterns.

Each language ships a catalogue of standard metrics (statements, expressions,
conditions, loops, function definitions, identifier lengths, TODO comments and more).
Ad-hoc tree-sitter queries and raw node type counts can be added on top.

Per-file results are summed by group, file, language or directory. Files with
too many parse errors for their size are left out of sums.

Examples:
  # Summarize the current directory by language
  treemetrics analyze --group-by lang

  # Only python files, a subset of the catalogue
  treemetrics analyze src --language python --metrics 'statements|loops'

  # Count an ad-hoc pattern next to the catalogue
  treemetrics analyze --query 'asserts=(assert_statement) @a'

  # Export the result tree as JSON and CSV side by side
  treemetrics analyze --output-file metrics`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}

// bulkCmd analyzes every group of a definition file.
var bulkCmd = &cobra.Command{
	Use:   "bulk <definition-file>",
	Short: "Analyze the groups of a YAML definition file.",
	Long: `Run one analysis per group of a definition file and report them together.

Each group names its paths and optionally its language (defaults to the group
name), an include filter, ad-hoc queries and whether the standard catalogue runs:

  python:
    paths: [services/api, tools]
    filter: '\.py$'
  web:
    language: typescript
    paths: [frontend/src]
    queries:
      hooks: '(call_expression function: (identifier) @f (#match? @f "^use"))'

A group that fails is reported and skipped.

Examples:
  treemetrics bulk groups.yaml
  treemetrics bulk groups.yaml --group-by lang --output-file totals.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBulk(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run bulk analysis", err)
		}
	},
}

// languagesCmd lists the supported languages.
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their standard metrics.",
	Long: `Show every supported language with its aliases, file extensions and the
metrics of its standard catalogue. No files are analyzed.

Examples:
  treemetrics languages
  treemetrics languages --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLanguages(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot list languages", err)
		}
	},
}
